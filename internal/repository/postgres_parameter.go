package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinex-booking/internal/domain"
)

type PostgresParameterRepository struct {
	db *pgxpool.Pool
}

func NewPostgresParameterRepository(db *pgxpool.Pool) *PostgresParameterRepository {
	return &PostgresParameterRepository{
		db: db,
	}
}

func (p *PostgresParameterRepository) Get(ctx context.Context, name string) (string, error) {
	query := `SELECT value FROM parameters WHERE name = $1`

	var value string

	err := p.db.QueryRow(ctx, query, name).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrRecordNotFound
		}

		return "", err
	}

	return value, nil
}
