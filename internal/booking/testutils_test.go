package booking

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/metinatakli/cinex-booking/internal/domain"
)

var testNow = time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T {
	return &v
}

// memorySeatRepo applies holds with the same compare-and-set rules as the
// SQL repository.
type memorySeatRepo struct {
	domain.SeatRepository
	mu    sync.Mutex
	seats map[int]*domain.ScreeningSeat
}

func newMemorySeatRepo(ids ...int) *memorySeatRepo {
	repo := &memorySeatRepo{seats: make(map[int]*domain.ScreeningSeat)}
	for _, id := range ids {
		repo.seats[id] = &domain.ScreeningSeat{
			ID:              id,
			ScreeningID:     1,
			Status:          domain.SeatStatusAvailable,
			ScreeningStatus: domain.ScreeningStatusNotYetShowing,
		}
	}

	return repo
}

func (r *memorySeatRepo) TryHold(_ context.Context, id int, holder string, expiresAt, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat, ok := r.seats[id]
	if !ok {
		return domain.ErrRecordNotFound
	}

	if !seat.ScreeningStatus.OnSale() {
		return domain.ErrScreeningClosed
	}

	if !seat.AvailableAt(now) {
		return domain.ErrSeatUnavailable
	}

	seat.Status = domain.SeatStatusHeld
	seat.HeldBy = &holder
	seat.HoldExpiresAt = &expiresAt

	return nil
}

func (r *memorySeatRepo) ReleaseIfStillHeld(_ context.Context, id int, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat, ok := r.seats[id]
	if !ok || seat.Status != domain.SeatStatusHeld || seat.HoldExpiresAt.After(now) {
		return false, nil
	}

	seat.Status = domain.SeatStatusAvailable
	seat.HeldBy = nil
	seat.HoldExpiresAt = nil

	return true, nil
}

func (r *memorySeatRepo) status(id int) domain.SeatStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.seats[id].Status
}

func (r *memorySeatRepo) holder(id int) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seats[id].HeldBy == nil {
		return ""
	}

	return *r.seats[id].HeldBy
}
