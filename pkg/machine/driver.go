package machine

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// RunLiveClock drives the Machine's timers off the wall clock until
// ctx is cancelled. One errgroup goroutine ticks the local and
// interval timers together through Tick; RunLiveClock returns that
// goroutine's error (ctx.Err() on cancellation). This is only used by
// the interactive CLI driver (cmd/nucleus); unit tests drive the
// Machine's Tick method directly and need no goroutines at all.
func (m *Machine) RunLiveClock(ctx context.Context, resolution time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(resolution)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				m.Tick(resolution)
			}
		}
	})
	return g.Wait()
}
