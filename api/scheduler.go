/*
scheduler.go - Automated batch scheduler

PURPOSE:
  Periodically runs the two time-driven batches without operator action:
  - Monthly accrual up to the current date
  - Year-end carry-over once the calendar rolls into a new year

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Both batches are idempotent, so firing more often than needed is
    harmless: already-advanced ledgers are skipped
  - Per-item failures are logged and retried on the next tick

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewBatchScheduler(accrual, carryOver, clock)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: manual batch trigger endpoints
  - leave/accrual.go, leave/carryover.go: batch implementations
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/leave-engine/leave"
)

// BatchScheduler fires the accrual and carry-over batches on a timer.
type BatchScheduler struct {
	Accrual       *leave.AccrualProcessor
	CarryOver     *leave.CarryOverProcessor
	Clock         leave.Clock
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewBatchScheduler creates a new scheduler.
func NewBatchScheduler(accrual *leave.AccrualProcessor, carryOver *leave.CarryOverProcessor, clock leave.Clock) *BatchScheduler {
	if clock == nil {
		clock = leave.SystemClock
	}
	return &BatchScheduler{
		Accrual:       accrual,
		CarryOver:     carryOver,
		Clock:         clock,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (bs *BatchScheduler) Start() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if !bs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	bs.ticker = time.NewTicker(bs.CheckInterval)
	bs.wg.Add(1)

	go bs.run()

	log.Printf("[Scheduler] Started with check interval: %v", bs.CheckInterval)
}

// Stop stops the scheduler.
func (bs *BatchScheduler) Stop() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.ticker != nil {
		bs.ticker.Stop()
		close(bs.stop)
		bs.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (bs *BatchScheduler) run() {
	defer bs.wg.Done()

	// Run immediately on start
	bs.tick()

	for {
		select {
		case <-bs.ticker.C:
			bs.tick()
		case <-bs.stop:
			return
		}
	}
}

func (bs *BatchScheduler) tick() {
	ctx := context.Background()
	now := bs.Clock()

	// Carry-over first so a fresh year's ledgers exist before accrual
	// touches them.
	lastYear := now.Year() - 1
	if res, err := bs.CarryOver.ProcessYearEndCarryOver(ctx, lastYear, now.Year()); err != nil {
		log.Printf("[Scheduler] Carry-over %d->%d failed: %v", lastYear, now.Year(), err)
	} else if res.Succeeded > 0 || len(res.Failed) > 0 {
		log.Printf("[Scheduler] Carry-over %d->%d: %d carried, %d skipped, %d failed",
			lastYear, now.Year(), res.Succeeded, res.Skipped, len(res.Failed))
		for _, f := range res.Failed {
			log.Printf("[Scheduler] Carry-over failure: %v", f)
		}
	}

	if res, err := bs.Accrual.ProcessMonthlyAccruals(ctx, now); err != nil {
		log.Printf("[Scheduler] Accrual to %s failed: %v", now.Format("2006-01-02"), err)
	} else if res.Succeeded > 0 || len(res.Failed) > 0 {
		log.Printf("[Scheduler] Accrual to %s: %d advanced, %d skipped, %d failed",
			now.Format("2006-01-02"), res.Succeeded, res.Skipped, len(res.Failed))
		for _, f := range res.Failed {
			log.Printf("[Scheduler] Accrual failure: %v", f)
		}
	}
}
