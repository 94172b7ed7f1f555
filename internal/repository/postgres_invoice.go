package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinex-booking/internal/domain"
)

type PostgresInvoiceRepository struct {
	db *pgxpool.Pool
}

func NewPostgresInvoiceRepository(db *pgxpool.Pool) *PostgresInvoiceRepository {
	return &PostgresInvoiceRepository{
		db: db,
	}
}

func (p *PostgresInvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice, now time.Time) error {
	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		for _, ticket := range invoice.Tickets {
			if err := bookSeat(ctx, tx, ticket.ScreeningSeatID, invoice.Holder, now); err != nil {
				return err
			}
		}

		if err := insertInvoice(ctx, tx, invoice); err != nil {
			return err
		}

		if err := insertInvoiceLines(ctx, tx, invoice); err != nil {
			return err
		}

		for _, applied := range invoice.Vouchers {
			if err := consumeVoucher(ctx, tx, applied, invoice.ID, now); err != nil {
				return err
			}
		}

		return insertPendingTransaction(ctx, tx, invoice)
	})

	if isUniqueViolation(err) {
		return domain.ErrSeatUnavailable
	}

	return err
}

// bookSeat claims one seat for the invoice. The seat must be free, held by
// the buyer, or held by someone whose hold has already run out.
func bookSeat(ctx context.Context, tx pgx.Tx, screeningSeatID int, holder string, now time.Time) error {
	query := `
		UPDATE screening_seats ss
		SET status = 'BOOKED', held_by = NULL, hold_expires_at = NULL, updated_at = NOW()
		FROM screenings s
		WHERE ss.id = $1
			AND ss.deleted_at IS NULL
			AND (
				ss.status = 'AVAILABLE'
				OR (ss.status = 'HELD' AND (ss.held_by = $2 OR ss.hold_expires_at <= $3))
			)
			AND s.id = ss.screening_id
			AND s.deleted_at IS NULL
			AND s.status IN ('NOT_YET_SHOWING', 'STARTING_SOON')
	`

	tag, err := tx.Exec(ctx, query, screeningSeatID, holder, now)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("screening seat %d: %w", screeningSeatID, domain.ErrSeatUnavailable)
	}

	return nil
}

func insertInvoice(ctx context.Context, tx pgx.Tx, invoice *domain.Invoice) error {
	query := `
		INSERT INTO invoices (
			code,
			buyer_email,
			ticket_subtotal,
			combo_subtotal,
			discount_total,
			total_amount,
			status
		)
		VALUES ($1, $2, $3, $4, $5, $6, 'PENDING')
		RETURNING id, status, created_at
	`

	return tx.QueryRow(
		ctx,
		query,
		invoice.Code,
		invoice.BuyerEmail,
		invoice.TicketSubtotal,
		invoice.ComboSubtotal,
		invoice.DiscountTotal,
		invoice.TotalAmount,
	).Scan(&invoice.ID, &invoice.Status, &invoice.CreatedAt)
}

func insertInvoiceLines(ctx context.Context, tx pgx.Tx, invoice *domain.Invoice) error {
	batch := &pgx.Batch{}

	for i := range invoice.Tickets {
		ticket := &invoice.Tickets[i]
		ticket.InvoiceID = invoice.ID
		ticket.Status = domain.TicketStatusIssued

		batch.Queue(`
			INSERT INTO tickets (invoice_id, screening_seat_id, price, status)
			VALUES ($1, $2, $3, 'ISSUED')
			RETURNING id`,
			invoice.ID, ticket.ScreeningSeatID, ticket.Price,
		).QueryRow(func(row pgx.Row) error {
			return row.Scan(&ticket.ID)
		})
	}

	for i := range invoice.Combos {
		line := &invoice.Combos[i]
		line.InvoiceID = invoice.ID

		batch.Queue(`
			INSERT INTO combo_line_items (invoice_id, combo_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			invoice.ID, line.ComboID, line.Quantity, line.UnitPrice,
		).QueryRow(func(row pgx.Row) error {
			return row.Scan(&line.ID)
		})
	}

	return tx.SendBatch(ctx, batch).Close()
}

func consumeVoucher(ctx context.Context, tx pgx.Tx, applied domain.AppliedVoucher, invoiceID int, now time.Time) error {
	redeemQuery := `
		UPDATE voucher_redemptions
		SET used_at = $2, invoice_id = $3
		WHERE id = $1 AND used_at IS NULL
	`

	tag, err := tx.Exec(ctx, redeemQuery, applied.RedemptionID, now, invoiceID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("voucher %s: %w", applied.Code, domain.ErrVoucherAlreadyUsed)
	}

	decrementQuery := `
		UPDATE vouchers
		SET remaining_uses = remaining_uses - 1
		WHERE id = $1 AND remaining_uses > 0
	`

	tag, err = tx.Exec(ctx, decrementQuery, applied.VoucherID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("voucher %s: %w", applied.Code, domain.ErrVoucherExhausted)
	}

	return nil
}

func insertPendingTransaction(ctx context.Context, tx pgx.Tx, invoice *domain.Invoice) error {
	query := `
		INSERT INTO payment_transactions (invoice_id, amount, status)
		VALUES ($1, $2, 'PENDING')
		RETURNING id
	`

	return tx.QueryRow(ctx, query, invoice.ID, invoice.TotalAmount).Scan(&invoice.TransactionID)
}

func (p *PostgresInvoiceRepository) Finalize(
	ctx context.Context,
	transactionID int,
	outcome domain.PaymentStatus,
	reason string,
	now time.Time) (*domain.Invoice, error) {

	var invoice domain.Invoice

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		settleQuery := `
			UPDATE payment_transactions
			SET status = $2, error_message = NULLIF($3, ''), updated_at = $4
			WHERE id = $1 AND status = 'PENDING'
			RETURNING invoice_id
		`

		err := tx.QueryRow(ctx, settleQuery, transactionID, outcome, reason, now).Scan(&invoice.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrPaymentFinalized
			}

			return err
		}

		invoice.TransactionID = transactionID

		if outcome == domain.PaymentStatusSuccess {
			return markInvoicePaid(ctx, tx, &invoice, now)
		}

		return compensateInvoice(ctx, tx, &invoice, now)
	})
	if err != nil {
		return nil, err
	}

	return &invoice, nil
}

func markInvoicePaid(ctx context.Context, tx pgx.Tx, invoice *domain.Invoice, now time.Time) error {
	query := `
		UPDATE invoices
		SET status = 'PAID', paid_at = $2
		WHERE id = $1
		RETURNING code, buyer_email, total_amount, status, created_at
	`

	return tx.QueryRow(ctx, query, invoice.ID, now).Scan(
		&invoice.Code,
		&invoice.BuyerEmail,
		&invoice.TotalAmount,
		&invoice.Status,
		&invoice.CreatedAt,
	)
}

// compensateInvoice undoes everything Create did apart from keeping the
// rows for audit.
func compensateInvoice(ctx context.Context, tx pgx.Tx, invoice *domain.Invoice, now time.Time) error {
	seatsQuery := `
		UPDATE screening_seats
		SET status = 'AVAILABLE', held_by = NULL, hold_expires_at = NULL, updated_at = NOW()
		WHERE status = 'BOOKED'
			AND id IN (
				SELECT screening_seat_id
				FROM tickets
				WHERE invoice_id = $1 AND status <> 'CANCELLED'
			)
	`

	if _, err := tx.Exec(ctx, seatsQuery, invoice.ID); err != nil {
		return err
	}

	ticketsQuery := `
		UPDATE tickets
		SET status = 'CANCELLED'
		WHERE invoice_id = $1 AND status <> 'CANCELLED'
	`

	if _, err := tx.Exec(ctx, ticketsQuery, invoice.ID); err != nil {
		return err
	}

	vouchersQuery := `
		UPDATE vouchers v
		SET remaining_uses = v.remaining_uses + r.uses
		FROM (
			SELECT voucher_id, COUNT(*) AS uses
			FROM voucher_redemptions
			WHERE invoice_id = $1
			GROUP BY voucher_id
		) r
		WHERE v.id = r.voucher_id
	`

	if _, err := tx.Exec(ctx, vouchersQuery, invoice.ID); err != nil {
		return err
	}

	redemptionsQuery := `
		UPDATE voucher_redemptions
		SET used_at = NULL, invoice_id = NULL
		WHERE invoice_id = $1
	`

	if _, err := tx.Exec(ctx, redemptionsQuery, invoice.ID); err != nil {
		return err
	}

	invoiceQuery := `
		UPDATE invoices
		SET status = 'FAILED', deleted_at = $2
		WHERE id = $1
		RETURNING code, buyer_email, total_amount, status, created_at
	`

	return tx.QueryRow(ctx, invoiceQuery, invoice.ID, now).Scan(
		&invoice.Code,
		&invoice.BuyerEmail,
		&invoice.TotalAmount,
		&invoice.Status,
		&invoice.CreatedAt,
	)
}
