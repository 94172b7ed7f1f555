package mocks

import (
	"context"

	"github.com/metinatakli/cinex-booking/internal/domain"
)

type MockParameterRepo struct {
	domain.ParameterRepository
	GetFunc func(ctx context.Context, name string) (string, error)
}

func (m *MockParameterRepo) Get(ctx context.Context, name string) (string, error) {
	return m.GetFunc(ctx, name)
}
