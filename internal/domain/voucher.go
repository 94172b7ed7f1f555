package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "PERCENTAGE"
	DiscountTypeFixed      DiscountType = "FIXED"
)

type VoucherTarget string

const (
	VoucherTargetTickets VoucherTarget = "TICKETS"
	VoucherTargetCombos  VoucherTarget = "COMBOS"
)

type Voucher struct {
	ID            int
	Code          string
	DiscountType  DiscountType
	Target        VoucherTarget
	Value         decimal.Decimal
	MinOrderValue decimal.NullDecimal
	MaxDiscount   decimal.NullDecimal
	ValidFrom     time.Time
	ValidUntil    time.Time
	RemainingUses int
	Active        bool
}

// VoucherRedemption is one buyer's claim on a voucher. It is consumed by the
// invoice it is applied to.
type VoucherRedemption struct {
	ID         int
	OwnerEmail string
	InvoiceID  *int
	UsedAt     *time.Time
	Voucher    Voucher
}

func (r VoucherRedemption) Used() bool {
	return r.UsedAt != nil
}

type VoucherRepository interface {
	GetRedemptionsByIDs(ctx context.Context, ids []int) ([]VoucherRedemption, error)
}

type Combo struct {
	ID    int
	Name  string
	Price decimal.Decimal
}

type ComboRepository interface {
	GetByIDs(ctx context.Context, ids []int) ([]Combo, error)
}
