package mocks

import (
	"context"

	"github.com/metinatakli/cinex-booking/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockVoucherRepo struct {
	mock.Mock
	domain.VoucherRepository
}

func (m *MockVoucherRepo) GetRedemptionsByIDs(ctx context.Context, ids []int) ([]domain.VoucherRedemption, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.VoucherRedemption), args.Error(1)
}
