package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Dispatcher starts pipeline runs asynchronously, holding a global
// concurrency cap and at most one in-flight run per owner.
type Dispatcher struct {
	run     func(ctx context.Context, owner string)
	sem     chan struct{}
	timeout time.Duration
	logger  zerolog.Logger

	mu       sync.Mutex
	inFlight map[string]bool
	wg       sync.WaitGroup
}

// NewDispatcher wires a dispatcher around a run function. maxConcurrent
// bounds simultaneous runs; timeout bounds each run.
func NewDispatcher(run func(ctx context.Context, owner string), maxConcurrent int, timeout time.Duration, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		run:      run,
		sem:      make(chan struct{}, maxConcurrent),
		timeout:  timeout,
		logger:   logger,
		inFlight: make(map[string]bool),
	}
}

// Trigger starts a run for owner unless one is already in flight for
// the same owner or the concurrency cap is reached. Reports whether a
// run was started.
func (d *Dispatcher) Trigger(owner string) bool {
	d.mu.Lock()
	if d.inFlight[owner] {
		d.mu.Unlock()
		d.logger.Info().Str("owner", owner).Msg("run already in flight, trigger ignored")
		return false
	}
	select {
	case d.sem <- struct{}{}:
	default:
		d.mu.Unlock()
		d.logger.Warn().Str("owner", owner).Msg("run capacity exhausted, trigger rejected")
		return false
	}
	d.inFlight[owner] = true
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer func() {
			d.mu.Lock()
			delete(d.inFlight, owner)
			d.mu.Unlock()
			<-d.sem
			d.wg.Done()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		d.run(ctx, owner)
	}()
	return true
}

// Wait blocks until every started run has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
