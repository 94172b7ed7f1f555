package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "PENDING"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusFailed  InvoiceStatus = "FAILED"
)

type TicketStatus string

const (
	TicketStatusIssued        TicketStatus = "ISSUED"
	TicketStatusCheckedIn     TicketStatus = "CHECKED_IN"
	TicketStatusRefundPending TicketStatus = "REFUND_PENDING"
	TicketStatusRefunded      TicketStatus = "REFUNDED"
	TicketStatusCancelled     TicketStatus = "CANCELLED"
)

type Invoice struct {
	ID             int
	Code           uuid.UUID
	BuyerEmail     string
	Holder         string
	TicketSubtotal decimal.Decimal
	ComboSubtotal  decimal.Decimal
	DiscountTotal  decimal.Decimal
	TotalAmount    decimal.Decimal
	Status         InvoiceStatus
	Tickets        []Ticket
	Combos         []ComboLineItem
	Vouchers       []AppliedVoucher
	TransactionID  int
	CreatedAt      time.Time
}

func (i *Invoice) ScreeningSeatIDs() []int {
	ids := make([]int, len(i.Tickets))
	for idx, t := range i.Tickets {
		ids[idx] = t.ScreeningSeatID
	}

	return ids
}

type Ticket struct {
	ID              int
	InvoiceID       int
	ScreeningSeatID int
	Row             int
	Col             int
	Price           decimal.Decimal
	Status          TicketStatus
}

type ComboLineItem struct {
	ID        int
	InvoiceID int
	ComboID   int
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

func (c ComboLineItem) Subtotal() decimal.Decimal {
	return c.UnitPrice.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

type InvoiceRepository interface {
	// Create books every ticket's seat, writes the invoice with its lines,
	// consumes the applied vouchers and opens a PENDING payment transaction,
	// all in one transaction. On success invoice.ID and
	// invoice.TransactionID are set.
	Create(ctx context.Context, invoice *Invoice, now time.Time) error
	// Finalize settles a PENDING transaction. A failed or cancelled outcome
	// returns the seats to AVAILABLE, cancels the tickets, fails the
	// invoice and restores the consumed vouchers. It returns
	// ErrPaymentFinalized when the transaction is no longer pending.
	Finalize(ctx context.Context, transactionID int, outcome PaymentStatus, reason string, now time.Time) (*Invoice, error)
}
