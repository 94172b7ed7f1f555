package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinex-booking/internal/domain"
)

type PostgresVoucherRepository struct {
	db *pgxpool.Pool
}

func NewPostgresVoucherRepository(db *pgxpool.Pool) *PostgresVoucherRepository {
	return &PostgresVoucherRepository{
		db: db,
	}
}

func (p *PostgresVoucherRepository) GetRedemptionsByIDs(ctx context.Context, ids []int) ([]domain.VoucherRedemption, error) {
	query := `
		SELECT
			vr.id,
			vr.owner_email,
			vr.invoice_id,
			vr.used_at,
			v.id,
			v.code,
			v.discount_type,
			v.target,
			v.value,
			v.min_order_value,
			v.max_discount,
			v.valid_from,
			v.valid_until,
			v.remaining_uses,
			v.active
		FROM voucher_redemptions vr
		JOIN vouchers v
			ON v.id = vr.voucher_id
		WHERE vr.id = ANY($1)
		ORDER BY vr.id
	`

	rows, err := p.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var redemptions []domain.VoucherRedemption

	for rows.Next() {
		var r domain.VoucherRedemption

		err = rows.Scan(
			&r.ID,
			&r.OwnerEmail,
			&r.InvoiceID,
			&r.UsedAt,
			&r.Voucher.ID,
			&r.Voucher.Code,
			&r.Voucher.DiscountType,
			&r.Voucher.Target,
			&r.Voucher.Value,
			&r.Voucher.MinOrderValue,
			&r.Voucher.MaxDiscount,
			&r.Voucher.ValidFrom,
			&r.Voucher.ValidUntil,
			&r.Voucher.RemainingUses,
			&r.Voucher.Active,
		)
		if err != nil {
			return nil, err
		}

		redemptions = append(redemptions, r)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return redemptions, nil
}
