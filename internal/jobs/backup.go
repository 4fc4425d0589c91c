package jobs

import (
	"context"
	"log"
	"time"

	"tecnobra-backend/internal/timeutil"
)

type Backuper interface {
	Backup(ctx context.Context, now time.Time) (string, error)
}

// StartBackupJob uploads a snapshot every interval
func StartBackupJob(ctx context.Context, b Backuper, interval time.Duration) {
	if b == nil {
		log.Printf("[Jobs] backup job disabled: storage not configured")
		return
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
				key, err := b.Backup(tickCtx, timeutil.Now())
				cancel()
				if err != nil {
					log.Printf("[Jobs] backup job error: %v", err)
					continue
				}
				log.Printf("[Jobs] backup job uploaded %s", key)
			}
		}
	}()
}
