package config

import (
	"fmt"
	"os"
	"time"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"

// SEAT_HOLD_DURATION is how long a SeatLock keeps a seat off the market while
// the buyer completes checkout. Pending orders share the same timeout.
const SEAT_HOLD_DURATION = 10 * time.Minute

// ADMISSION_WINDOW bounds ticket validation around the event schedule:
// scans are accepted from startAt-ADMISSION_WINDOW through endAt+ADMISSION_WINDOW.
const ADMISSION_WINDOW = 3 * time.Hour

// LOCK_SWEEP_INTERVAL is how often the scheduler reclaims expired seat locks
// and cancels stale pending orders.
const LOCK_SWEEP_INTERVAL = time.Minute
