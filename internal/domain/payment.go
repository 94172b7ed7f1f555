package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSuccess   PaymentStatus = "SUCCESS"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// IsOutcome reports whether s is a final outcome a payment can be settled
// with.
func (s PaymentStatus) IsOutcome() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed || s == PaymentStatusCancelled
}

type PaymentTransaction struct {
	ID                int
	InvoiceID         int
	Amount            decimal.Decimal
	Status            PaymentStatus
	ProviderReference *string
	ErrorMsg          *string
	CreatedAt         time.Time
	UpdatedAt         *time.Time
	ManualRefundAt    *time.Time
}

type PaymentRepository interface {
	GetByID(ctx context.Context, id int) (*PaymentTransaction, error)
	SetProviderReference(ctx context.Context, id int, reference string) error
	// FlagManualRefund marks a compensated transaction whose money was
	// captured anyway. Flagging twice keeps the first time.
	FlagManualRefund(ctx context.Context, id int, at time.Time) error
}
