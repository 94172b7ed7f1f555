package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinex-booking/internal/domain"
)

const refundRequestColumns = `
	id,
	invoice_id,
	requester_email,
	reason,
	bank_name,
	bank_account_number,
	account_holder,
	amount,
	status,
	note,
	created_at,
	processed_at
`

type PostgresRefundRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRefundRepository(db *pgxpool.Pool) *PostgresRefundRepository {
	return &PostgresRefundRepository{
		db: db,
	}
}

func (p *PostgresRefundRepository) GetByID(ctx context.Context, id int) (*domain.RefundRequest, error) {
	query := `SELECT ` + refundRequestColumns + ` FROM refund_requests WHERE id = $1`

	req, err := scanRefundRequest(p.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return req, nil
}

func (p *PostgresRefundRepository) Approve(
	ctx context.Context,
	id int,
	now time.Time,
	check func(domain.RefundRequest, domain.RefundLedger) error) (*domain.RefundRequest, *domain.PayoutInstruction, error) {

	var (
		req    *domain.RefundRequest
		payout *domain.PayoutInstruction
	)

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		lockQuery := `SELECT ` + refundRequestColumns + ` FROM refund_requests WHERE id = $1 FOR UPDATE`

		var err error

		req, err = scanRefundRequest(tx.QueryRow(ctx, lockQuery, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrRecordNotFound
			}

			return err
		}

		ledger, err := loadRefundLedger(ctx, tx, req.InvoiceID)
		if err != nil {
			return err
		}

		if err = check(*req, *ledger); err != nil {
			return err
		}

		payout = &domain.PayoutInstruction{
			RefundRequestID: req.ID,
			Amount:          req.Amount,
			Destination:     req.Destination,
		}

		payoutQuery := `
			INSERT INTO payout_instructions (
				refund_request_id,
				amount,
				bank_name,
				bank_account_number,
				account_holder
			)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`

		err = tx.QueryRow(
			ctx,
			payoutQuery,
			payout.RefundRequestID,
			payout.Amount,
			payout.Destination.BankName,
			payout.Destination.AccountNumber,
			payout.Destination.AccountHolder,
		).Scan(&payout.ID, &payout.CreatedAt)
		if err != nil {
			return err
		}

		requestQuery := `
			UPDATE refund_requests
			SET status = 'REFUNDED', processed_at = $2
			WHERE id = $1
		`

		if _, err = tx.Exec(ctx, requestQuery, req.ID, now); err != nil {
			return err
		}

		ticketsQuery := `
			UPDATE tickets
			SET status = 'ISSUED'
			WHERE invoice_id = $1 AND status = 'REFUND_PENDING'
		`
		if ledger.Settles(req.Amount) {
			ticketsQuery = `
				UPDATE tickets
				SET status = 'REFUNDED'
				WHERE invoice_id = $1 AND status IN ('ISSUED', 'REFUND_PENDING')
			`
		}

		if _, err = tx.Exec(ctx, ticketsQuery, req.InvoiceID); err != nil {
			return err
		}

		req.Status = domain.RefundStatusRefunded
		req.ProcessedAt = &now

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return req, payout, nil
}

// loadRefundLedger locks the invoice before summing its refunds. The sums
// run as a separate statement so they see refunds committed by whoever held
// the lock before.
func loadRefundLedger(ctx context.Context, tx pgx.Tx, invoiceID int) (*domain.RefundLedger, error) {
	var ledger domain.RefundLedger

	lockQuery := `
		SELECT status, total_amount
		FROM invoices
		WHERE id = $1
		FOR UPDATE
	`

	err := tx.QueryRow(ctx, lockQuery, invoiceID).Scan(&ledger.InvoiceStatus, &ledger.PaidTotal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	sumsQuery := `
		SELECT
			COALESCE((
				SELECT SUM(price)
				FROM tickets
				WHERE invoice_id = $1 AND status IN ('ISSUED', 'REFUND_PENDING', 'REFUNDED')
			), 0),
			COALESCE((
				SELECT SUM(unit_price * quantity)
				FROM combo_line_items
				WHERE invoice_id = $1
			), 0),
			COALESCE((
				SELECT SUM(amount)
				FROM refund_requests
				WHERE invoice_id = $1 AND status = 'REFUNDED'
			), 0)
	`

	err = tx.QueryRow(ctx, sumsQuery, invoiceID).Scan(
		&ledger.TicketTotal,
		&ledger.ComboTotal,
		&ledger.AlreadyRefunded,
	)
	if err != nil {
		return nil, err
	}

	return &ledger, nil
}

func (p *PostgresRefundRepository) Reject(
	ctx context.Context,
	id int,
	note string,
	now time.Time) (*domain.RefundRequest, error) {

	var req *domain.RefundRequest

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			UPDATE refund_requests
			SET status = 'REJECTED', note = NULLIF($2, ''), processed_at = $3
			WHERE id = $1 AND status = 'PENDING'
			RETURNING ` + refundRequestColumns

		var err error

		req, err = scanRefundRequest(tx.QueryRow(ctx, query, id, note, now))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return p.rejectFailureReason(ctx, tx, id)
			}

			return err
		}

		ticketsQuery := `
			UPDATE tickets
			SET status = 'ISSUED'
			WHERE invoice_id = $1 AND status = 'REFUND_PENDING'
		`

		_, err = tx.Exec(ctx, ticketsQuery, req.InvoiceID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return req, nil
}

func (p *PostgresRefundRepository) rejectFailureReason(ctx context.Context, tx pgx.Tx, id int) error {
	var exists bool

	err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM refund_requests WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}

	if !exists {
		return domain.ErrRecordNotFound
	}

	return domain.ErrRefundAlreadyProcessed
}

func (p *PostgresRefundRepository) ListUndispatchedPayouts(ctx context.Context, limit int) ([]domain.PayoutInstruction, error) {
	query := `
		SELECT
			id,
			refund_request_id,
			amount,
			bank_name,
			bank_account_number,
			account_holder,
			created_at,
			dispatched_at
		FROM payout_instructions
		WHERE dispatched_at IS NULL
		ORDER BY id
		LIMIT $1
	`

	rows, err := p.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PayoutInstruction, error) {
		var payout domain.PayoutInstruction

		err := row.Scan(
			&payout.ID,
			&payout.RefundRequestID,
			&payout.Amount,
			&payout.Destination.BankName,
			&payout.Destination.AccountNumber,
			&payout.Destination.AccountHolder,
			&payout.CreatedAt,
			&payout.DispatchedAt,
		)

		return payout, err
	})
}

func (p *PostgresRefundRepository) MarkPayoutDispatched(ctx context.Context, id int, at time.Time) error {
	query := `
		UPDATE payout_instructions
		SET dispatched_at = $2
		WHERE id = $1 AND dispatched_at IS NULL
	`

	_, err := p.db.Exec(ctx, query, id, at)
	return err
}

func scanRefundRequest(row pgx.Row) (*domain.RefundRequest, error) {
	var req domain.RefundRequest

	err := row.Scan(
		&req.ID,
		&req.InvoiceID,
		&req.RequesterEmail,
		&req.Reason,
		&req.Destination.BankName,
		&req.Destination.AccountNumber,
		&req.Destination.AccountHolder,
		&req.Amount,
		&req.Status,
		&req.Note,
		&req.CreatedAt,
		&req.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}

	return &req, nil
}
