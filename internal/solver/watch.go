package solver

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Watch starts a Run whenever events have been quiet for the given period.
// Each event restarts the quiet timer. A timer that fires while a run is
// still active is dropped. Watch returns when events is closed or ctx is
// done, after any run it started has finished.
func (s *Solver) Watch(ctx context.Context, events <-chan struct{}, page Page, r Renderer, quiet time.Duration) error {
	timer := time.NewTimer(quiet)
	timer.Stop()
	defer timer.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case _, ok := <-events:
			if !ok {
				return nil
			}
			timer.Reset(quiet)

		case <-timer.C:
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.watchRun(ctx, page, r)
			}()
		}
	}
}

func (s *Solver) watchRun(ctx context.Context, page Page, r Renderer) {
	rep, err := s.Run(ctx, page, r, RunOptions{})
	switch {
	case errors.Is(err, ErrScanActive), errors.Is(err, ErrAutoSolveDisabled), errors.Is(err, ErrNoQuestions):
		s.log.Debug("solver: watch scan skipped", "reason", err)
	case err != nil:
		s.log.Warn("solver: watch scan failed", "error", err)
	default:
		s.log.Debug("solver: watch scan done", "run_id", rep.RunID, "outcomes", len(rep.Outcomes), "skipped", rep.Skipped)
	}
}
