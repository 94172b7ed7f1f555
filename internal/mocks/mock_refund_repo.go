package mocks

import (
	"context"
	"time"

	"github.com/metinatakli/cinex-booking/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockRefundRepo struct {
	mock.Mock
	domain.RefundRepository
}

func (m *MockRefundRepo) GetByID(ctx context.Context, id int) (*domain.RefundRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.RefundRequest), args.Error(1)
}

func (m *MockRefundRepo) Reject(ctx context.Context, id int, note string, now time.Time) (*domain.RefundRequest, error) {
	args := m.Called(ctx, id, note, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.RefundRequest), args.Error(1)
}

func (m *MockRefundRepo) ListUndispatchedPayouts(ctx context.Context, limit int) ([]domain.PayoutInstruction, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.PayoutInstruction), args.Error(1)
}

func (m *MockRefundRepo) MarkPayoutDispatched(ctx context.Context, id int, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// Approve runs check against the request and ledger the test configured, so
// the caller's validation is exercised as it would be inside the
// transaction.
func (m *MockRefundRepo) Approve(
	ctx context.Context,
	id int,
	now time.Time,
	check func(domain.RefundRequest, domain.RefundLedger) error) (*domain.RefundRequest, *domain.PayoutInstruction, error) {

	args := m.Called(ctx, id, now)
	if err := args.Error(3); err != nil {
		return nil, nil, err
	}

	req := args.Get(0).(*domain.RefundRequest)
	ledger := args.Get(1).(domain.RefundLedger)

	if err := check(*req, ledger); err != nil {
		return nil, nil, err
	}

	approved := *req
	approved.Status = domain.RefundStatusRefunded
	approved.ProcessedAt = &now

	return &approved, args.Get(2).(*domain.PayoutInstruction), nil
}
