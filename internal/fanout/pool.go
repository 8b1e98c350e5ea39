// Package fanout runs per-recipient units of work with bounded concurrency
// and isolated failure capture.
package fanout

import (
	"context"
	"fmt"
	"sync"

	"merchant-statements/internal/logging"
)

// UnitFunc is one unit of work for one recipient identifier.
type UnitFunc func(ctx context.Context, storeID string) error

// Result is the captured outcome of one dispatched unit. Errors never cross
// the pool boundary unhandled; they land here.
type Result struct {
	StoreID string
	Err     error
}

// Pool executes units over a pending set with a fixed worker budget. One
// pool is instantiated per fan-out pass.
type Pool struct {
	workers int
	logger  logging.Logger
}

// NewPool creates a pool with the given concurrency ceiling.
func NewPool(workers int, logger logging.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers, logger: logger}
}

// Run dispatches one unit per identifier and waits for completion. A
// cancelled context stops dispatch of new units promptly; in-flight units
// finish and report, undispatched identifiers yield no result and are
// naturally retried on the next run.
func (p *Pool) Run(ctx context.Context, storeIDs []string, unit UnitFunc) []Result {
	jobs := make(chan string)
	results := make(chan Result, len(storeIDs))

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for storeID := range jobs {
				results <- Result{StoreID: storeID, Err: p.runUnit(ctx, storeID, unit)}
			}
		}()
	}

dispatch:
	for _, storeID := range storeIDs {
		select {
		case <-ctx.Done():
			p.logger.Warn("Dispatch stopped by cancellation",
				logging.F("reason", ctx.Err()))
			break dispatch
		case jobs <- storeID:
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	collected := make([]Result, 0, len(storeIDs))
	for result := range results {
		collected = append(collected, result)
	}
	return collected
}

// runUnit invokes one unit, converting panics into errors so a single
// recipient can never take down the pass.
func (p *Pool) runUnit(ctx context.Context, storeID string, unit UnitFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unit of work panicked for %s: %v", storeID, r)
		}
	}()
	return unit(ctx, storeID)
}
