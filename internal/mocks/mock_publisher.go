package mocks

import (
	"context"

	"github.com/metinatakli/cinex-booking/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishInvoiceEvent(ctx context.Context, event domain.InvoiceEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPublisher) PublishPayout(ctx context.Context, payout domain.PayoutInstruction) error {
	args := m.Called(ctx, payout)
	return args.Error(0)
}
