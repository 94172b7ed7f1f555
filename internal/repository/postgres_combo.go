package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinex-booking/internal/domain"
)

type PostgresComboRepository struct {
	db *pgxpool.Pool
}

func NewPostgresComboRepository(db *pgxpool.Pool) *PostgresComboRepository {
	return &PostgresComboRepository{
		db: db,
	}
}

func (p *PostgresComboRepository) GetByIDs(ctx context.Context, ids []int) ([]domain.Combo, error) {
	query := `
		SELECT id, name, price
		FROM combos
		WHERE id = ANY($1) AND deleted_at IS NULL
		ORDER BY id
	`

	rows, err := p.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Combo, error) {
		var c domain.Combo
		err := row.Scan(&c.ID, &c.Name, &c.Price)
		return c, err
	})
}
