package mocks

import (
	"context"
	"time"

	"github.com/metinatakli/cinex-booking/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockPaymentRepo struct {
	mock.Mock
	domain.PaymentRepository
}

func (m *MockPaymentRepo) GetByID(ctx context.Context, id int) (*domain.PaymentTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.PaymentTransaction), args.Error(1)
}

func (m *MockPaymentRepo) SetProviderReference(ctx context.Context, id int, reference string) error {
	args := m.Called(ctx, id, reference)
	return args.Error(0)
}

func (m *MockPaymentRepo) FlagManualRefund(ctx context.Context, id int, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}
