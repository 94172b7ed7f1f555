package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type RefundStatus string

const (
	RefundStatusPending  RefundStatus = "PENDING"
	RefundStatusRefunded RefundStatus = "REFUNDED"
	RefundStatusRejected RefundStatus = "REJECTED"
)

type BankDestination struct {
	BankName      string
	AccountNumber string
	AccountHolder string
}

type RefundRequest struct {
	ID             int
	InvoiceID      int
	RequesterEmail string
	Reason         string
	Destination    BankDestination
	Amount         decimal.Decimal
	Status         RefundStatus
	Note           *string
	CreatedAt      time.Time
	ProcessedAt    *time.Time
}

type PayoutInstruction struct {
	ID              int
	RefundRequestID int
	Amount          decimal.Decimal
	Destination     BankDestination
	CreatedAt       time.Time
	DispatchedAt    *time.Time
}

// RefundLedger is what an invoice can still give back at the moment a
// refund is decided. TicketTotal counts every refundable ticket, including
// tickets refunded before; AlreadyRefunded is what was paid back so far.
type RefundLedger struct {
	InvoiceStatus   InvoiceStatus
	PaidTotal       decimal.Decimal
	TicketTotal     decimal.Decimal
	ComboTotal      decimal.Decimal
	AlreadyRefunded decimal.Decimal
}

// ceiling is the most the invoice can ever give back: its tickets and
// combos, but never more than the buyer paid after discounts.
func (l RefundLedger) ceiling() decimal.Decimal {
	return decimal.Min(l.TicketTotal.Add(l.ComboTotal), l.PaidTotal)
}

// Refundable returns the largest amount that may still be paid out.
func (l RefundLedger) Refundable() decimal.Decimal {
	if l.InvoiceStatus != InvoiceStatusPaid {
		return decimal.Zero
	}

	return decimal.Max(decimal.Zero, l.ceiling().Sub(l.AlreadyRefunded))
}

// Settles reports whether paying out amount gives back everything the
// invoice can return, at which point its tickets count as refunded.
func (l RefundLedger) Settles(amount decimal.Decimal) bool {
	return l.AlreadyRefunded.Add(amount).GreaterThanOrEqual(l.ceiling())
}

type RefundRepository interface {
	GetByID(ctx context.Context, id int) (*RefundRequest, error)
	// Approve locks the request and its invoice, runs check against them,
	// then records the payout and marks the request refunded. The invoice's
	// tickets become REFUNDED once the ledger is settled; a partial refund
	// puts REFUND_PENDING tickets back to ISSUED. Nothing is written when
	// check returns an error.
	Approve(ctx context.Context, id int, now time.Time, check func(RefundRequest, RefundLedger) error) (*RefundRequest, *PayoutInstruction, error)
	// Reject closes a PENDING request. It returns ErrRefundAlreadyProcessed
	// when the request was decided before.
	Reject(ctx context.Context, id int, note string, now time.Time) (*RefundRequest, error)
	ListUndispatchedPayouts(ctx context.Context, limit int) ([]PayoutInstruction, error)
	MarkPayoutDispatched(ctx context.Context, id int, at time.Time) error
}
