package cli

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/custodia-labs/sercha-discover/internal/logger"
)

// drainTimeout bounds how long shutdown waits for running ingest jobs.
const drainTimeout = 30 * time.Second

// startBackground starts the scheduler and config watching for long-running
// commands. The returned func stops both and drains running ingest jobs.
func startBackground(ctx context.Context) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	if services.SchedulerEnabled && services.Scheduler != nil {
		go func() {
			defer close(done)
			if err := services.Scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.L().Error("scheduler stopped", zap.Error(err))
			}
		}()
	} else {
		close(done)
	}

	if services.WatchConfig != nil && services.Reload != nil {
		reload := services.Reload
		if err := services.WatchConfig(ctx, func() {
			logger.L().Info("config changed, reloading")
			reload()
		}); err != nil {
			logger.L().Warn("config watch unavailable", zap.Error(err))
		}
	}

	return func() {
		if services.Scheduler != nil {
			if err := services.Scheduler.Stop(); err != nil {
				logger.L().Warn("scheduler stop failed", zap.Error(err))
			}
		}
		cancel()
		<-done

		if services.Ingest != nil {
			drainCtx, drainCancel := context.WithTimeout(context.Background(), drainTimeout)
			defer drainCancel()
			if err := services.Ingest.Drain(drainCtx); err != nil {
				logger.L().Warn("ingest jobs still running at shutdown", zap.Error(err))
			}
		}
	}
}
