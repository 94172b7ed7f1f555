package mocks

import (
	"context"
	"time"

	"github.com/metinatakli/cinex-booking/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockSeatRepo struct {
	mock.Mock
	domain.SeatRepository
}

func (m *MockSeatRepo) TryHold(ctx context.Context, id int, holder string, expiresAt, now time.Time) error {
	args := m.Called(ctx, id, holder, expiresAt, now)
	return args.Error(0)
}

func (m *MockSeatRepo) ReleaseIfStillHeld(ctx context.Context, id int, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockSeatRepo) ReleaseHold(ctx context.Context, id int, holder string) error {
	args := m.Called(ctx, id, holder)
	return args.Error(0)
}

func (m *MockSeatRepo) ReleaseExpiredHolds(ctx context.Context, now time.Time) ([]int, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]int), args.Error(1)
}

func (m *MockSeatRepo) GetByIDs(ctx context.Context, ids []int) ([]domain.ScreeningSeat, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.ScreeningSeat), args.Error(1)
}

func (m *MockSeatRepo) GetSeatMap(ctx context.Context, screeningID int) (*domain.SeatMap, error) {
	args := m.Called(ctx, screeningID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.SeatMap), args.Error(1)
}
