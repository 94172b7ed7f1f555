package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/metinatakli/cinex-booking/internal/domain"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

var (
	ErrInvalidSignature = errors.New("webhook signature verification failed")
	ErrInvalidEvent     = errors.New("webhook event is malformed")
)

// Settlement is the outcome a provider event settles a transaction with.
type Settlement struct {
	TransactionID int
	Outcome       domain.PaymentStatus
	Reason        string
	Reference     string
}

// ParseStripeWebhook verifies the event signature and maps checkout session
// events to a settlement. It returns nil for events that do not settle a
// payment.
func ParseStripeWebhook(payload []byte, signature, secret string) (*Settlement, error) {
	opts := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var outcome domain.PaymentStatus
	var reason string

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		outcome = domain.PaymentStatusSuccess
	case stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		outcome = domain.PaymentStatusFailed
		reason = "payment failed at the provider"
	case stripe.EventTypeCheckoutSessionExpired:
		outcome = domain.PaymentStatusCancelled
		reason = "checkout session expired"
	default:
		return nil, nil
	}

	var checkoutSession stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &checkoutSession); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	// A completed session for a delayed payment method is settled by the
	// async events instead.
	if event.Type == stripe.EventTypeCheckoutSessionCompleted &&
		checkoutSession.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		return nil, nil
	}

	transactionID, err := strconv.Atoi(checkoutSession.Metadata[MetadataTransactionID])
	if err != nil {
		return nil, fmt.Errorf("%w: missing %s metadata", ErrInvalidEvent, MetadataTransactionID)
	}

	return &Settlement{
		TransactionID: transactionID,
		Outcome:       outcome,
		Reason:        reason,
		Reference:     checkoutSession.ID,
	}, nil
}
