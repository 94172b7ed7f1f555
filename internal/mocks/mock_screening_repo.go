package mocks

import (
	"context"

	"github.com/metinatakli/cinex-booking/internal/domain"
)

type MockScreeningRepo struct {
	domain.ScreeningRepository
	ListUnfinishedFunc func(ctx context.Context) ([]domain.Screening, error)
	AdvanceStatusFunc  func(ctx context.Context, id int, from, to domain.ScreeningStatus) (bool, error)
}

func (m *MockScreeningRepo) ListUnfinished(ctx context.Context) ([]domain.Screening, error) {
	return m.ListUnfinishedFunc(ctx)
}

func (m *MockScreeningRepo) AdvanceStatus(
	ctx context.Context,
	id int,
	from, to domain.ScreeningStatus) (bool, error) {

	return m.AdvanceStatusFunc(ctx, id, from, to)
}
