package mocks

import (
	"context"

	"github.com/metinatakli/cinex-booking/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockComboRepo struct {
	mock.Mock
	domain.ComboRepository
}

func (m *MockComboRepo) GetByIDs(ctx context.Context, ids []int) ([]domain.Combo, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Combo), args.Error(1)
}
