package mocks

import (
	"context"
	"time"

	"github.com/metinatakli/cinex-booking/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockHoldScheduler struct {
	mock.Mock
	domain.HoldScheduler
}

func (m *MockHoldScheduler) Schedule(ctx context.Context, screeningSeatID int, at time.Time) error {
	args := m.Called(ctx, screeningSeatID, at)
	return args.Error(0)
}

func (m *MockHoldScheduler) Cancel(ctx context.Context, screeningSeatIDs ...int) error {
	args := m.Called(ctx, screeningSeatIDs)
	return args.Error(0)
}

func (m *MockHoldScheduler) PopDue(ctx context.Context, now time.Time) ([]int, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]int), args.Error(1)
}
