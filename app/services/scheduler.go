package services

import (
	"log"
	"time"

	"smart-attendance/app/config"
	"smart-attendance/app/live"
)

// StartScheduler starts the background task scheduler. It periodically
// flushes and closes live sessions that have been idle longer than the
// configured TTL.
func StartScheduler(manager *live.Manager) {
	go func() {
		log.Println("Scheduler started...")
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			closed := manager.Sweep(config.AppConfig.SessionTTL)
			if closed > 0 {
				log.Printf("Closed %d idle live sessions", closed)
			}
		}
	}()
}
