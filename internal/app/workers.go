package app

import (
	"context"
	"log/slog"
	"time"
)

// startWorkers runs the periodic jobs until ctx is cancelled. Each job runs
// on its own ticker so a slow pass of one does not delay the others.
func (app *Application) startWorkers(ctx context.Context) {
	app.every(ctx, "hold-release", app.config.Workers.HoldPollInterval, func(ctx context.Context) (int, error) {
		return app.seats.ProcessDueReleases(ctx)
	})

	app.every(ctx, "hold-sweep", app.config.Workers.HoldSweepInterval, func(ctx context.Context) (int, error) {
		return app.seats.SweepExpiredHolds(ctx)
	})

	app.every(ctx, "showtime-reconcile", app.config.Workers.ShowtimeReconcileInterval, func(ctx context.Context) (int, error) {
		result, err := app.showtimes.Reconcile(ctx)
		return result.Advanced, err
	})

	app.every(ctx, "payout-dispatch", app.config.Workers.PayoutDispatchInterval, func(ctx context.Context) (int, error) {
		return app.refunds.DispatchPayouts(ctx)
	})
}

func (app *Application) every(ctx context.Context, name string, interval time.Duration, job func(context.Context) (int, error)) {
	if interval <= 0 {
		app.logger.Info("worker disabled", "worker", name)
		return
	}

	logger := app.logger.With("worker", name)

	app.workers.Add(1)

	go func() {
		defer app.workers.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runPass(ctx, logger, job)
			}
		}
	}()
}

func runPass(ctx context.Context, logger *slog.Logger, job func(context.Context) (int, error)) {
	defer func() {
		if err := recover(); err != nil {
			logger.Error("panic occurred in worker pass", "panic", err)
		}
	}()

	n, err := job(ctx)
	if err != nil {
		logger.Error("worker pass failed", "error", err)
		return
	}

	if n > 0 {
		logger.Debug("worker pass completed", "affected", n)
	}
}
