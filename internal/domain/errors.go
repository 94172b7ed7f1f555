package domain

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")

	ErrSeatUnavailable  = errors.New("seat is not available")
	ErrScreeningClosed  = errors.New("screening is no longer open for booking")
	ErrInvalidCheckout  = errors.New("invalid checkout request")
	ErrMissingHolder    = errors.New("no session to hold seats for")
	ErrMixedScreenings  = errors.New("all seats must belong to the same screening")
	ErrInvalidOutcome   = errors.New("payment outcome must be one of SUCCESS, FAILED or CANCELLED")
	ErrPaymentFinalized = errors.New("payment has already been finalized")

	ErrVoucherAlreadyUsed   = errors.New("voucher has already been used")
	ErrVoucherInactive      = errors.New("voucher is not active")
	ErrVoucherNotStarted    = errors.New("voucher is not valid yet")
	ErrVoucherExpired       = errors.New("voucher has expired")
	ErrVoucherExhausted     = errors.New("voucher has no remaining uses")
	ErrVoucherMinimumNotMet = errors.New("order does not meet the voucher minimum")

	ErrRefundAlreadyProcessed = errors.New("refund request has already been processed")
	ErrRefundAmountExceeded   = errors.New("refund amount exceeds the refundable total")
	ErrInvoiceNotPaid         = errors.New("invoice has not been paid")
)
