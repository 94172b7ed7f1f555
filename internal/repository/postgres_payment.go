package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinex-booking/internal/domain"
)

type PostgresPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPostgresPaymentRepository(db *pgxpool.Pool) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{
		db: db,
	}
}

func (p *PostgresPaymentRepository) GetByID(ctx context.Context, id int) (*domain.PaymentTransaction, error) {
	query := `
		SELECT
			id,
			invoice_id,
			amount,
			status,
			provider_reference,
			error_message,
			created_at,
			updated_at,
			manual_refund_at
		FROM payment_transactions
		WHERE id = $1
	`

	var payment domain.PaymentTransaction

	err := p.db.QueryRow(ctx, query, id).Scan(
		&payment.ID,
		&payment.InvoiceID,
		&payment.Amount,
		&payment.Status,
		&payment.ProviderReference,
		&payment.ErrorMsg,
		&payment.CreatedAt,
		&payment.UpdatedAt,
		&payment.ManualRefundAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &payment, nil
}

func (p *PostgresPaymentRepository) SetProviderReference(ctx context.Context, id int, reference string) error {
	query := `
		UPDATE payment_transactions
		SET provider_reference = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := p.db.Exec(ctx, query, id, reference)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func (p *PostgresPaymentRepository) FlagManualRefund(ctx context.Context, id int, at time.Time) error {
	query := `
		UPDATE payment_transactions
		SET manual_refund_at = COALESCE(manual_refund_at, $2), updated_at = NOW()
		WHERE id = $1 AND status IN ('FAILED', 'CANCELLED')
	`

	tag, err := p.db.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}
