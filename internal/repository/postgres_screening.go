package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinex-booking/internal/domain"
)

type PostgresScreeningRepository struct {
	db *pgxpool.Pool
}

func NewPostgresScreeningRepository(db *pgxpool.Pool) *PostgresScreeningRepository {
	return &PostgresScreeningRepository{
		db: db,
	}
}

func (p *PostgresScreeningRepository) ListUnfinished(ctx context.Context) ([]domain.Screening, error) {
	query := `
		SELECT id, start_time, end_time, status
		FROM screenings
		WHERE status <> 'SHOWN' AND deleted_at IS NULL
		ORDER BY start_time, id
	`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Screening, error) {
		var s domain.Screening
		err := row.Scan(&s.ID, &s.StartTime, &s.EndTime, &s.Status)
		return s, err
	})
}

func (p *PostgresScreeningRepository) AdvanceStatus(
	ctx context.Context,
	id int,
	from, to domain.ScreeningStatus) (bool, error) {

	query := `
		UPDATE screenings
		SET status = $3
		WHERE id = $1 AND status = $2 AND deleted_at IS NULL
	`

	tag, err := p.db.Exec(ctx, query, id, from, to)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}
