package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceEventType string

const (
	InvoiceEventCreated InvoiceEventType = "invoice.created"
	InvoiceEventPaid    InvoiceEventType = "invoice.paid"
	InvoiceEventFailed  InvoiceEventType = "invoice.failed"
)

type InvoiceEvent struct {
	Type          InvoiceEventType
	InvoiceID     int
	InvoiceCode   string
	TransactionID int
	BuyerEmail    string
	Amount        decimal.Decimal
	Reason        string
	OccurredAt    time.Time
}

type EventPublisher interface {
	PublishInvoiceEvent(ctx context.Context, event InvoiceEvent) error
}

type PayoutPublisher interface {
	PublishPayout(ctx context.Context, payout PayoutInstruction) error
}
