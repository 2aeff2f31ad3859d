package boot

import (
	"log"

	"etix/src/config"
	"etix/src/db"
	"etix/src/lib"
	"etix/src/models"
	"etix/src/utils"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Seat{},
		&models.SeatLock{},
		&models.Order{},
		&models.Ticket{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// InitScheduler starts the background sweep that releases expired seat locks
// and cancels stale pending orders.
func InitScheduler() {
	id, err := lib.CreateCronJob(func() {
		if _, err := utils.ReleaseExpiredSeatLocks(); err != nil {
			log.Printf("[sweep] error releasing seat locks: %s\n", err.Error())
		}
		if _, err := utils.CancelStalePendingOrders(); err != nil {
			log.Printf("[sweep] error cancelling stale orders: %s\n", err.Error())
		}
	}, config.LOCK_SWEEP_INTERVAL)
	if err != nil {
		log.Printf("Error running job: %s\n", err.Error())
		return
	}
	log.Printf("Job ID: %s\n", *id)
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while shutting stopping Scheduler. Check logs for info")
		return
	}
}
