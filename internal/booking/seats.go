package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/metinatakli/cinex-booking/internal/clock"
	"github.com/metinatakli/cinex-booking/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// releaseRetryDelay is how long a release that failed to apply waits before
// it is attempted again.
const releaseRetryDelay = 10 * time.Second

type SeatService struct {
	seats     domain.SeatRepository
	params    domain.ParameterRepository
	scheduler domain.HoldScheduler
	clock     clock.Clock
	logger    *slog.Logger
	metrics   *metrics
}

func NewSeatService(
	seats domain.SeatRepository,
	params domain.ParameterRepository,
	scheduler domain.HoldScheduler,
	clk clock.Clock,
	logger *slog.Logger) *SeatService {

	return &SeatService{
		seats:     seats,
		params:    params,
		scheduler: scheduler,
		clock:     clk,
		logger:    logger,
		metrics:   newMetrics(),
	}
}

// HoldDuration reads the configured hold length, using the default when the
// parameter is missing, unreadable or not a positive number.
func (s *SeatService) HoldDuration(ctx context.Context) time.Duration {
	raw, err := s.params.Get(ctx, domain.ParamSeatHoldDurationMinutes)
	if err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			s.logger.Warn("failed to read seat hold duration, using default",
				"error", err,
				"default", domain.DefaultSeatHoldDuration)
		}

		return domain.DefaultSeatHoldDuration
	}

	return domain.SeatHoldDuration(raw)
}

// TryHold gives holder a temporary claim on the seat. At most one of any
// number of concurrent callers for the same seat succeeds.
func (s *SeatService) TryHold(ctx context.Context, screeningSeatID int, holder string) (*domain.SeatHold, error) {
	if holder == "" {
		return nil, domain.ErrMissingHolder
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.HoldDuration(ctx))

	err := s.seats.TryHold(ctx, screeningSeatID, holder, expiresAt, now)
	if err != nil {
		if errors.Is(err, domain.ErrSeatUnavailable) {
			s.metrics.holdsRejected.Add(ctx, 1)
		}

		return nil, err
	}

	s.metrics.holdsGranted.Add(ctx, 1)

	// The expired hold sweep still releases the seat if scheduling fails.
	if err := s.scheduler.Schedule(ctx, screeningSeatID, expiresAt); err != nil {
		s.logger.Error("failed to schedule hold release",
			"screening_seat_id", screeningSeatID,
			"expires_at", expiresAt,
			"error", err)
	}

	return &domain.SeatHold{
		ScreeningSeatID: screeningSeatID,
		Holder:          holder,
		ExpiresAt:       expiresAt,
	}, nil
}

// ReleaseIfStillHeld returns the seat to AVAILABLE only if it is still HELD
// and its deadline has passed. A seat that was booked or held again with a
// later deadline is left untouched.
func (s *SeatService) ReleaseIfStillHeld(ctx context.Context, screeningSeatID int) (bool, error) {
	released, err := s.seats.ReleaseIfStillHeld(ctx, screeningSeatID, s.clock.Now())
	if err != nil {
		return false, err
	}

	if released {
		s.metrics.holdsReleased.Add(ctx, 1)
	}

	return released, nil
}

// ReleaseHold gives up holder's own hold before it expires.
func (s *SeatService) ReleaseHold(ctx context.Context, screeningSeatID int, holder string) error {
	if err := s.seats.ReleaseHold(ctx, screeningSeatID, holder); err != nil {
		return err
	}

	if err := s.scheduler.Cancel(ctx, screeningSeatID); err != nil {
		s.logger.Warn("failed to cancel scheduled hold release",
			"screening_seat_id", screeningSeatID,
			"error", err)
	}

	return nil
}

// ProcessDueReleases applies every scheduled release that has come due and
// returns how many seats went back to AVAILABLE. Releases that fail are
// rescheduled.
func (s *SeatService) ProcessDueReleases(ctx context.Context) (int, error) {
	now := s.clock.Now()

	due, err := s.scheduler.PopDue(ctx, now)
	if err != nil {
		return 0, err
	}

	released := 0

	for _, id := range due {
		ok, err := s.ReleaseIfStillHeld(ctx, id)
		if err != nil {
			s.logger.Error("failed to release seat hold",
				"screening_seat_id", id,
				"error", err)

			if err := s.scheduler.Schedule(ctx, id, now.Add(releaseRetryDelay)); err != nil {
				s.logger.Error("failed to reschedule hold release",
					"screening_seat_id", id,
					"error", err)
			}

			continue
		}

		if ok {
			released++
		}
	}

	return released, nil
}

// SweepExpiredHolds releases every hold whose deadline has passed regardless
// of what the scheduler knows about.
func (s *SeatService) SweepExpiredHolds(ctx context.Context) (int, error) {
	ids, err := s.seats.ReleaseExpiredHolds(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}

	if len(ids) > 0 {
		s.metrics.holdsReleased.Add(ctx, int64(len(ids)), metric.WithAttributes(attribute.String("source", "sweep")))

		if err := s.scheduler.Cancel(ctx, ids...); err != nil {
			s.logger.Warn("failed to cancel swept hold releases", "error", err)
		}
	}

	return len(ids), nil
}

func (s *SeatService) SeatMap(ctx context.Context, screeningID int) (*domain.SeatMap, error) {
	return s.seats.GetSeatMap(ctx, screeningID)
}

// Now exposes the service clock so callers can judge hold expiry the same
// way the service does.
func (s *SeatService) Now() time.Time {
	return s.clock.Now()
}
