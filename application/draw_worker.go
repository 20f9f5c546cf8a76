package application

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// DrawWorker triggers draws on a fixed interval. It only delivers ticks;
// exclusivity and rollover decisions live in the settlement engine, so a
// missed or doubled tick is harmless.
type DrawWorker struct {
	orchestrator *SettlementOrchestrator
	interval     time.Duration
}

// NewDrawWorker creates a new draw worker
func NewDrawWorker(orchestrator *SettlementOrchestrator, interval time.Duration) *DrawWorker {
	return &DrawWorker{
		orchestrator: orchestrator,
		interval:     interval,
	}
}

// Start begins the draw worker and returns a cleanup function
func (w *DrawWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.Infof("Draw worker started, interval %v", w.interval)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info("Draw worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Draw worker shutting down (stop requested)...")
				return
			case <-ticker.C:
				if _, err := w.orchestrator.RunWeeklyDraw(ctx); err != nil {
					log.Errorf("Scheduled draw failed: %v", err)
				}
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}
