package services

import (
	"context"
	"log"
	"time"

	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/repositories"
)

// DueOrders lists orders whose automatic step is due.
type DueOrders interface {
	DueForAutoAdvance(ctx context.Context, now time.Time, limit int64) ([]models.Order, error)
}

// Advancer moves one order a step forward.
type Advancer interface {
	AutoAdvance(ctx context.Context, order *models.Order) (*models.Order, error)
}

// AutoAdvanceWorker polls for due orders. Progress lives in the order's
// autoAdvanceAt field, so a restart picks up where it stopped.
type AutoAdvanceWorker struct {
	due      DueOrders
	advancer Advancer
	interval time.Duration
	batch    int64
	now      func() time.Time
}

const minAutoAdvanceInterval = time.Second

func NewAutoAdvanceWorker(due DueOrders, advancer Advancer, interval time.Duration) *AutoAdvanceWorker {
	if interval < minAutoAdvanceInterval {
		interval = minAutoAdvanceInterval
	}
	return &AutoAdvanceWorker{
		due:      due,
		advancer: advancer,
		interval: interval,
		batch:    50,
		now:      time.Now,
	}
}

// Run ticks until ctx is cancelled.
func (w *AutoAdvanceWorker) Run(ctx context.Context) {
	log.Printf("Order auto-advance worker started (every %s)", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.Tick(ctx)
		case <-ctx.Done():
			log.Println("Order auto-advance worker stopped")
			return
		}
	}
}

// Tick advances every due order once and returns how many moved.
func (w *AutoAdvanceWorker) Tick(ctx context.Context) int {
	orders, err := w.due.DueForAutoAdvance(ctx, w.now(), w.batch)
	if err != nil {
		log.Printf("auto-advance: failed to load due orders: %v", err)
		return 0
	}
	moved := 0
	for i := range orders {
		if _, err := w.advancer.AutoAdvance(ctx, &orders[i]); err != nil {
			// another actor moved the order first
			if err != repositories.ErrConflict {
				log.Printf("auto-advance: order %s: %v", orders[i].OrderNumber, err)
			}
			continue
		}
		moved++
	}
	return moved
}
