package booking

import (
	"context"
	"log/slog"

	"github.com/metinatakli/cinex-booking/internal/clock"
	"github.com/metinatakli/cinex-booking/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type ReconcileResult struct {
	Evaluated int
	Advanced  int
	Failed    int
}

// ShowtimeLifecycle moves screenings forward through their statuses as the
// clock passes their start and end times.
type ShowtimeLifecycle struct {
	screenings domain.ScreeningRepository
	clock      clock.Clock
	logger     *slog.Logger
	metrics    *metrics
}

func NewShowtimeLifecycle(screenings domain.ScreeningRepository, clk clock.Clock, logger *slog.Logger) *ShowtimeLifecycle {
	return &ShowtimeLifecycle{
		screenings: screenings,
		clock:      clk,
		logger:     logger,
		metrics:    newMetrics(),
	}
}

// Reconcile evaluates every unfinished screening once. A screening that
// fails to update is logged and skipped so the others still advance.
// Running it again without the clock moving changes nothing.
func (l *ShowtimeLifecycle) Reconcile(ctx context.Context) (ReconcileResult, error) {
	var result ReconcileResult

	screenings, err := l.screenings.ListUnfinished(ctx)
	if err != nil {
		return result, err
	}

	now := l.clock.Now()

	for _, screening := range screenings {
		result.Evaluated++

		next, moved := screening.NextStatus(now)
		if !moved {
			continue
		}

		advanced, err := l.screenings.AdvanceStatus(ctx, screening.ID, screening.Status, next)
		if err != nil {
			result.Failed++

			l.logger.Error("failed to advance screening status",
				"screening_id", screening.ID,
				"from", screening.Status,
				"to", next,
				"error", err)

			continue
		}

		if !advanced {
			continue
		}

		result.Advanced++
		l.metrics.screeningsAdvanced.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(next))))

		l.logger.Info("screening status advanced",
			"screening_id", screening.ID,
			"from", screening.Status,
			"to", next)
	}

	return result, nil
}
