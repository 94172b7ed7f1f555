package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type PriceBreakdown struct {
	TicketSubtotal decimal.Decimal
	ComboSubtotal  decimal.Decimal
}

type AppliedVoucher struct {
	RedemptionID int
	VoucherID    int
	Code         string
	Target       VoucherTarget
	Discount     decimal.Decimal
}

type Quote struct {
	TicketSubtotal decimal.Decimal
	ComboSubtotal  decimal.Decimal
	DiscountTotal  decimal.Decimal
	Total          decimal.Decimal
	Applied        []AppliedVoucher
}

// Price applies the redemptions to the order. Each voucher is evaluated
// against the original subtotal of the part it targets, so the result does
// not depend on the order the vouchers are given in. The total never drops
// below zero.
func Price(order PriceBreakdown, redemptions []VoucherRedemption, now time.Time) (*Quote, error) {
	quote := &Quote{
		TicketSubtotal: order.TicketSubtotal,
		ComboSubtotal:  order.ComboSubtotal,
		DiscountTotal:  decimal.Zero,
		Applied:        make([]AppliedVoucher, 0, len(redemptions)),
	}

	claims := make(map[int]int, len(redemptions))
	for _, r := range redemptions {
		claims[r.Voucher.ID]++
	}

	for _, r := range redemptions {
		base := order.TicketSubtotal
		if r.Voucher.Target == VoucherTargetCombos {
			base = order.ComboSubtotal
		}

		if err := checkVoucher(r, base, claims[r.Voucher.ID], now); err != nil {
			return nil, fmt.Errorf("voucher %s: %w", r.Voucher.Code, err)
		}

		discount := voucherDiscount(r.Voucher, base)
		quote.DiscountTotal = quote.DiscountTotal.Add(discount)
		quote.Applied = append(quote.Applied, AppliedVoucher{
			RedemptionID: r.ID,
			VoucherID:    r.Voucher.ID,
			Code:         r.Voucher.Code,
			Target:       r.Voucher.Target,
			Discount:     discount,
		})
	}

	subtotal := order.TicketSubtotal.Add(order.ComboSubtotal)
	quote.Total = decimal.Max(decimal.Zero, subtotal.Sub(quote.DiscountTotal))

	return quote, nil
}

func checkVoucher(r VoucherRedemption, base decimal.Decimal, claims int, now time.Time) error {
	v := r.Voucher

	switch {
	case r.Used():
		return ErrVoucherAlreadyUsed
	case !v.Active:
		return ErrVoucherInactive
	case now.Before(v.ValidFrom):
		return ErrVoucherNotStarted
	case now.After(v.ValidUntil):
		return ErrVoucherExpired
	case v.RemainingUses < claims:
		return ErrVoucherExhausted
	case v.MinOrderValue.Valid && base.LessThan(v.MinOrderValue.Decimal):
		return ErrVoucherMinimumNotMet
	}

	return nil
}

func voucherDiscount(v Voucher, base decimal.Decimal) decimal.Decimal {
	if v.DiscountType == DiscountTypeFixed {
		return v.Value
	}

	discount := base.Mul(v.Value).Div(hundred).Round(2)
	if v.MaxDiscount.Valid && discount.GreaterThan(v.MaxDiscount.Decimal) {
		return v.MaxDiscount.Decimal
	}

	return discount
}
