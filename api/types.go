// Package api holds the JSON request and response bodies of the booking HTTP
// surface.
package api

import (
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	RequestId        string            `json:"requestId"`
	Timestamp        time.Time         `json:"timestamp"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type SeatType string

type Seat struct {
	Id        int             `json:"id"`
	Row       int             `json:"row"`
	Column    int             `json:"column"`
	Type      SeatType        `json:"type"`
	Price     decimal.Decimal `json:"price"`
	Available bool            `json:"available"`
}

type SeatRow struct {
	Row   int    `json:"row"`
	Seats []Seat `json:"seats"`
}

type SeatMapResponse struct {
	ScreeningId int       `json:"screeningId"`
	MovieTitle  string    `json:"movieTitle"`
	RoomName    string    `json:"roomName"`
	StartTime   time.Time `json:"startTime"`
	Status      string    `json:"status"`
	SeatRows    []SeatRow `json:"seatRows"`
}

type SeatHoldResponse struct {
	ScreeningSeatId int       `json:"screeningSeatId"`
	HoldExpiresAt   time.Time `json:"holdExpiresAt"`
	HoldTime        int       `json:"holdTime"`
}

type ComboSelection struct {
	ComboId  int `json:"comboId" validate:"gt=0"`
	Quantity int `json:"quantity" validate:"gt=0,lte=20"`
}

type CheckoutRequest struct {
	BuyerEmail           openapi_types.Email `json:"buyerEmail" validate:"required,email"`
	ScreeningSeatIds     []int               `json:"screeningSeatIds" validate:"required,min=1,max=10,unique,dive,gt=0"`
	Combos               []ComboSelection    `json:"combos" validate:"omitempty,max=10,dive"`
	VoucherRedemptionIds []int               `json:"voucherRedemptionIds" validate:"omitempty,max=5,unique,dive,gt=0"`
}

type AppliedVoucher struct {
	RedemptionId int             `json:"redemptionId"`
	Code         string          `json:"code"`
	Target       string          `json:"target"`
	Discount     decimal.Decimal `json:"discount"`
}

type QuoteResponse struct {
	TicketSubtotal  decimal.Decimal  `json:"ticketSubtotal"`
	ComboSubtotal   decimal.Decimal  `json:"comboSubtotal"`
	DiscountTotal   decimal.Decimal  `json:"discountTotal"`
	Total           decimal.Decimal  `json:"total"`
	AppliedVouchers []AppliedVoucher `json:"appliedVouchers"`
}

type CheckoutResponse struct {
	InvoiceId     int             `json:"invoiceId"`
	InvoiceCode   uuid.UUID       `json:"invoiceCode"`
	TransactionId int             `json:"transactionId"`
	Status        string          `json:"status"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	RedirectUrl   string          `json:"redirectUrl,omitempty"`
}

type PaymentOutcome string

const (
	PaymentOutcomeSuccess   PaymentOutcome = "SUCCESS"
	PaymentOutcomeFailed    PaymentOutcome = "FAILED"
	PaymentOutcomeCancelled PaymentOutcome = "CANCELLED"
)

type PaymentCallbackRequest struct {
	TransactionId int            `json:"transactionId" validate:"gt=0"`
	Outcome       PaymentOutcome `json:"outcome" validate:"payment_outcome"`
	Reason        string         `json:"reason" validate:"max=500"`
}

type RefundDecision string

const (
	RefundDecisionApprove RefundDecision = "APPROVE"
	RefundDecisionReject  RefundDecision = "REJECT"
)

type RefundDecisionRequest struct {
	Decision RefundDecision `json:"decision" validate:"refund_decision"`
	Note     string         `json:"note" validate:"max=500"`
}

type RefundRequestResponse struct {
	Id          int             `json:"id"`
	InvoiceId   int             `json:"invoiceId"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	Note        *string         `json:"note,omitempty"`
	ProcessedAt *time.Time      `json:"processedAt,omitempty"`
}

type ReconcileResponse struct {
	Evaluated int `json:"evaluated"`
	Advanced  int `json:"advanced"`
	Failed    int `json:"failed"`
}
