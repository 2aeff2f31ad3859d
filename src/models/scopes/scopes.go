package scopes

import (
	"time"

	"gorm.io/gorm"
)

func Published(db *gorm.DB) *gorm.DB {
	return db.Where("published = ?", true)
}

func Upcoming(db *gorm.DB) *gorm.DB {
	return db.Where("end_at >= ?", time.Now())
}

func Unexpired(db *gorm.DB) *gorm.DB {
	return db.Where("expires_at > ?", time.Now())
}
