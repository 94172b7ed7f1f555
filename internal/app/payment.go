package app

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/metinatakli/cinex-booking/api"
	"github.com/metinatakli/cinex-booking/internal/domain"
	"github.com/metinatakli/cinex-booking/internal/payment"
)

const maxWebhookBytes = 65536

func (app *Application) PaymentCallbackHandler(w http.ResponseWriter, r *http.Request) {
	var input api.PaymentCallbackRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	err = app.checkout.FinalizePayment(r.Context(), input.TransactionId, domain.PaymentStatus(input.Outcome), input.Reason)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) StripeWebhookHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	if app.config.Stripe.WebhookSecret == "" {
		app.serverErrorResponse(w, r, errors.New("stripe webhook secret is not configured"))
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid webhook payload"))
		return
	}

	settlement, err := payment.ParseStripeWebhook(payload, r.Header.Get("Stripe-Signature"), app.config.Stripe.WebhookSecret)
	if err != nil {
		logger.Warn("rejected stripe webhook", "error", err)

		switch {
		case errors.Is(err, payment.ErrInvalidSignature):
			app.badRequestResponse(w, r, payment.ErrInvalidSignature)
		default:
			app.badRequestResponse(w, r, payment.ErrInvalidEvent)
		}

		return
	}

	if settlement == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	err = app.checkout.FinalizePayment(r.Context(), settlement.TransactionID, settlement.Outcome, settlement.Reason)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentFinalized) {
			// the provider retries until it sees a 2xx; a late capture was
			// already flagged for manual refund
			logger.Warn("webhook for an already settled transaction",
				"transaction_id", settlement.TransactionID,
				"outcome", settlement.Outcome)
			w.WriteHeader(http.StatusOK)
			return
		}

		app.bookingErrorResponse(w, r, err)
		return
	}

	logger.Info("stripe webhook settled transaction",
		"transaction_id", settlement.TransactionID,
		"outcome", settlement.Outcome,
		"reference", settlement.Reference)

	w.WriteHeader(http.StatusOK)
}
