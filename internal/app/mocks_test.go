package app

import (
	"context"
	"time"

	"github.com/metinatakli/cinex-booking/internal/booking"
	"github.com/metinatakli/cinex-booking/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockSeatService struct {
	mock.Mock
}

func (m *MockSeatService) TryHold(ctx context.Context, screeningSeatID int, holder string) (*domain.SeatHold, error) {
	args := m.Called(ctx, screeningSeatID, holder)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.SeatHold), args.Error(1)
}

func (m *MockSeatService) ReleaseHold(ctx context.Context, screeningSeatID int, holder string) error {
	args := m.Called(ctx, screeningSeatID, holder)
	return args.Error(0)
}

func (m *MockSeatService) SeatMap(ctx context.Context, screeningID int) (*domain.SeatMap, error) {
	args := m.Called(ctx, screeningID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.SeatMap), args.Error(1)
}

func (m *MockSeatService) ProcessDueReleases(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockSeatService) SweepExpiredHolds(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockSeatService) HoldDuration(ctx context.Context) time.Duration {
	return domain.DefaultSeatHoldDuration
}

func (m *MockSeatService) Now() time.Time {
	return testNow
}

type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) Quote(ctx context.Context, req booking.CheckoutRequest) (*domain.Quote, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Quote), args.Error(1)
}

func (m *MockCheckoutService) CreateInvoice(ctx context.Context, req booking.CheckoutRequest) (*booking.CheckoutResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*booking.CheckoutResult), args.Error(1)
}

func (m *MockCheckoutService) FinalizePayment(
	ctx context.Context,
	transactionID int,
	outcome domain.PaymentStatus,
	reason string) error {

	args := m.Called(ctx, transactionID, outcome, reason)
	return args.Error(0)
}

type MockShowtimeLifecycle struct {
	mock.Mock
}

func (m *MockShowtimeLifecycle) Reconcile(ctx context.Context) (booking.ReconcileResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(booking.ReconcileResult), args.Error(1)
}

type MockRefundWorkflow struct {
	mock.Mock
}

func (m *MockRefundWorkflow) Approve(ctx context.Context, id int) (*domain.RefundRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.RefundRequest), args.Error(1)
}

func (m *MockRefundWorkflow) Reject(ctx context.Context, id int, note string) (*domain.RefundRequest, error) {
	args := m.Called(ctx, id, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.RefundRequest), args.Error(1)
}

func (m *MockRefundWorkflow) DispatchPayouts(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockRefundWorkflow) Wait() {}
