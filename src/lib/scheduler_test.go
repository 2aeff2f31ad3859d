package lib

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCreateCronJob(t *testing.T) {
	id, err := CreateCronJob(func() {}, time.Minute)
	assert.NoError(t, err)
	assert.NotNil(t, id)

	sched, err := GetScheduler()
	assert.NoError(t, err)
	assert.NotEmpty(t, sched.Jobs())
	assert.NoError(t, sched.Shutdown())
}
