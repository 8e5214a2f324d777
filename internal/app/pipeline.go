package app

import (
	"context"
	"errors"
	"time"

	"github.com/ayusman/chakra/internal/hand"
	"github.com/ayusman/chakra/internal/logger"
)

// runPipeline is the tick loop. Every 1/TickRate seconds it drains the
// tracker and processes the frames; it returns when ctx is done or the
// tracker is closed.
func (a *App) runPipeline(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	interval := time.Second / time.Duration(a.cfg.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !a.step(ctx, now) {
				return
			}
		}
	}
}

// step polls once and processes the frames. It reports false when the
// tracker is gone.
func (a *App) step(ctx context.Context, now time.Time) bool {
	frames, err := a.tracker.Poll()
	if errors.Is(err, hand.ErrTrackerClosed) {
		a.log.Warn(ctx, "tracker closed, stopping pipeline")
		return false
	}
	if err != nil {
		a.log.Error(ctx, "failed to poll tracker", logger.Error(err))
		return true
	}
	if len(frames) == 0 {
		return true
	}

	a.engine.Process(frames, now)
	return true
}
