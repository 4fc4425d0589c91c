package jobs

import (
	"context"
	"log"
	"time"

	"tecnobra-backend/internal/metrics"
	"tecnobra-backend/internal/models"
	"tecnobra-backend/internal/timeutil"
)

// LiveSource is the running-machine snapshot the ticker publishes
type LiveSource interface {
	LiveSnapshot(ctx context.Context, now time.Time) ([]models.LiveMachine, error)
}

// PublishLive sets the gauge for every running machine and drops machines
// that stopped since the previous tick. It returns the machines published.
func PublishLive(ctx context.Context, src LiveSource, now time.Time, previous map[string]bool) (map[string]bool, error) {
	live, err := src.LiveSnapshot(ctx, now)
	if err != nil {
		return previous, err
	}
	current := make(map[string]bool, len(live))
	for _, m := range live {
		metrics.RentalLiveMinutes.WithLabelValues(m.MachineID).Set(float64(m.ElapsedMinutes))
		current[m.MachineID] = true
	}
	for id := range previous {
		if !current[id] {
			metrics.RentalLiveMinutes.DeleteLabelValues(id)
		}
	}
	return current, nil
}

// StartRentalTicker refreshes the live display of running machines.
// It only reads; sessions are committed by stop scans.
func StartRentalTicker(ctx context.Context, src LiveSource, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		var published map[string]bool
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
				var err error
				published, err = PublishLive(tickCtx, src, timeutil.Now(), published)
				cancel()
				if err != nil {
					log.Printf("[Jobs] rental ticker error: %v", err)
				}
			}
		}
	}()
}
