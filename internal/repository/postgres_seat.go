package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinex-booking/internal/domain"
)

const screeningSeatColumns = `
	ss.id,
	ss.screening_id,
	ss.seat_id,
	se.seat_row,
	se.seat_col,
	COALESCE(st.name, 'STANDARD'),
	COALESCE(st.extra_price, 0),
	s.base_price,
	ss.status,
	ss.held_by,
	ss.hold_expires_at,
	s.status
`

const screeningSeatJoins = `
	FROM screening_seats ss
	JOIN screenings s
		ON s.id = ss.screening_id AND s.deleted_at IS NULL
	JOIN seats se
		ON se.id = ss.seat_id
	LEFT JOIN seat_type_assignments sta
		ON sta.seat_id = se.id
	LEFT JOIN seat_types st
		ON st.id = sta.seat_type_id
`

type PostgresSeatRepository struct {
	db *pgxpool.Pool
}

func NewPostgresSeatRepository(db *pgxpool.Pool) *PostgresSeatRepository {
	return &PostgresSeatRepository{
		db: db,
	}
}

func (p *PostgresSeatRepository) TryHold(
	ctx context.Context,
	id int,
	holder string,
	expiresAt, now time.Time) error {

	query := `
		UPDATE screening_seats ss
		SET status = 'HELD', held_by = $2, hold_expires_at = $3, updated_at = NOW()
		FROM screenings s
		WHERE ss.id = $1
			AND ss.deleted_at IS NULL
			AND (ss.status = 'AVAILABLE' OR (ss.status = 'HELD' AND ss.hold_expires_at <= $4))
			AND s.id = ss.screening_id
			AND s.deleted_at IS NULL
			AND s.status IN ('NOT_YET_SHOWING', 'STARTING_SOON')
	`

	tag, err := p.db.Exec(ctx, query, id, holder, expiresAt, now)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 1 {
		return nil
	}

	return p.holdFailureReason(ctx, id)
}

// holdFailureReason tells apart the cases in which a conditional hold did
// not match any row.
func (p *PostgresSeatRepository) holdFailureReason(ctx context.Context, id int) error {
	query := `
		SELECT s.status, s.deleted_at IS NOT NULL
		FROM screening_seats ss
		JOIN screenings s
			ON s.id = ss.screening_id
		WHERE ss.id = $1 AND ss.deleted_at IS NULL
	`

	var (
		status  domain.ScreeningStatus
		deleted bool
	)

	err := p.db.QueryRow(ctx, query, id).Scan(&status, &deleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrRecordNotFound
		}

		return err
	}

	if deleted || !status.OnSale() {
		return domain.ErrScreeningClosed
	}

	return domain.ErrSeatUnavailable
}

func (p *PostgresSeatRepository) ReleaseIfStillHeld(ctx context.Context, id int, now time.Time) (bool, error) {
	query := `
		UPDATE screening_seats
		SET status = 'AVAILABLE', held_by = NULL, hold_expires_at = NULL, updated_at = NOW()
		WHERE id = $1
			AND deleted_at IS NULL
			AND status = 'HELD'
			AND hold_expires_at <= $2
	`

	tag, err := p.db.Exec(ctx, query, id, now)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (p *PostgresSeatRepository) ReleaseHold(ctx context.Context, id int, holder string) error {
	query := `
		UPDATE screening_seats
		SET status = 'AVAILABLE', held_by = NULL, hold_expires_at = NULL, updated_at = NOW()
		WHERE id = $1
			AND deleted_at IS NULL
			AND status = 'HELD'
			AND held_by = $2
	`

	tag, err := p.db.Exec(ctx, query, id, holder)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func (p *PostgresSeatRepository) ReleaseExpiredHolds(ctx context.Context, now time.Time) ([]int, error) {
	query := `
		UPDATE screening_seats
		SET status = 'AVAILABLE', held_by = NULL, hold_expires_at = NULL, updated_at = NOW()
		WHERE status = 'HELD'
			AND deleted_at IS NULL
			AND hold_expires_at <= $1
		RETURNING id
	`

	rows, err := p.db.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func (p *PostgresSeatRepository) GetByIDs(ctx context.Context, ids []int) ([]domain.ScreeningSeat, error) {
	query := `SELECT ` + screeningSeatColumns + screeningSeatJoins + `
		WHERE ss.id = ANY($1) AND ss.deleted_at IS NULL
		ORDER BY ss.id
	`

	rows, err := p.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanScreeningSeats(rows)
}

func (p *PostgresSeatRepository) GetSeatMap(ctx context.Context, screeningID int) (*domain.SeatMap, error) {
	headerQuery := `
		SELECT s.id, s.movie_title, r.name, s.start_time, s.status
		FROM screenings s
		JOIN rooms r
			ON r.id = s.room_id
		WHERE s.id = $1 AND s.deleted_at IS NULL
	`

	var seatMap domain.SeatMap

	err := p.db.QueryRow(ctx, headerQuery, screeningID).Scan(
		&seatMap.ScreeningID,
		&seatMap.MovieTitle,
		&seatMap.RoomName,
		&seatMap.StartTime,
		&seatMap.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	seatsQuery := `SELECT ` + screeningSeatColumns + screeningSeatJoins + `
		WHERE ss.screening_id = $1 AND ss.deleted_at IS NULL AND se.deleted_at IS NULL
		ORDER BY se.seat_row, se.seat_col
	`

	rows, err := p.db.Query(ctx, seatsQuery, screeningID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seatMap.Seats, err = scanScreeningSeats(rows)
	if err != nil {
		return nil, err
	}

	return &seatMap, nil
}

func scanScreeningSeats(rows pgx.Rows) ([]domain.ScreeningSeat, error) {
	var seats []domain.ScreeningSeat

	for rows.Next() {
		var seat domain.ScreeningSeat

		err := rows.Scan(
			&seat.ID,
			&seat.ScreeningID,
			&seat.SeatID,
			&seat.Row,
			&seat.Col,
			&seat.Type,
			&seat.ExtraPrice,
			&seat.BasePrice,
			&seat.Status,
			&seat.HeldBy,
			&seat.HoldExpiresAt,
			&seat.ScreeningStatus,
		)
		if err != nil {
			return nil, err
		}

		seats = append(seats, seat)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return seats, nil
}
