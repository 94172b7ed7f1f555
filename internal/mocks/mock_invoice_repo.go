package mocks

import (
	"context"
	"time"

	"github.com/metinatakli/cinex-booking/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockInvoiceRepo struct {
	mock.Mock
	domain.InvoiceRepository
}

func (m *MockInvoiceRepo) Create(ctx context.Context, invoice *domain.Invoice, now time.Time) error {
	args := m.Called(ctx, invoice, now)
	return args.Error(0)
}

func (m *MockInvoiceRepo) Finalize(
	ctx context.Context,
	transactionID int,
	outcome domain.PaymentStatus,
	reason string,
	now time.Time) (*domain.Invoice, error) {

	args := m.Called(ctx, transactionID, outcome, reason, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Invoice), args.Error(1)
}
