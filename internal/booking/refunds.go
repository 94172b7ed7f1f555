package booking

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/metinatakli/cinex-booking/internal/clock"
	"github.com/metinatakli/cinex-booking/internal/domain"
	"github.com/metinatakli/cinex-booking/internal/mailer"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const payoutDispatchBatch = 50

const (
	refundApprovedTemplate = "refund_approved.tmpl"
	refundRejectedTemplate = "refund_rejected.tmpl"
)

type RefundWorkflow struct {
	refunds domain.RefundRepository
	payouts domain.PayoutPublisher
	mailer  mailer.Mailer
	clock   clock.Clock
	logger  *slog.Logger
	metrics *metrics
	wg      sync.WaitGroup
}

func NewRefundWorkflow(
	refunds domain.RefundRepository,
	payouts domain.PayoutPublisher,
	m mailer.Mailer,
	clk clock.Clock,
	logger *slog.Logger) *RefundWorkflow {

	return &RefundWorkflow{
		refunds: refunds,
		payouts: payouts,
		mailer:  m,
		clock:   clk,
		logger:  logger,
		metrics: newMetrics(),
	}
}

// Approve refunds a PENDING request. The payout instruction is recorded in
// the same transaction as the decision and handed to the payout topic after
// commit; anything that fails to send is retried by DispatchPayouts.
func (w *RefundWorkflow) Approve(ctx context.Context, id int) (*domain.RefundRequest, error) {
	req, payout, err := w.refunds.Approve(ctx, id, w.clock.Now(), checkRefundable)
	if err != nil {
		return nil, err
	}

	w.metrics.refundsDecided.Add(ctx, 1, metric.WithAttributes(attribute.String("decision", "approved")))
	w.logger.Info("refund approved", "refund_request_id", req.ID, "amount", req.Amount)

	if err := w.dispatch(ctx, *payout); err != nil {
		w.logger.Warn("payout dispatch deferred",
			"payout_id", payout.ID,
			"error", err)
	}

	w.notify(req.RequesterEmail, refundApprovedTemplate, map[string]any{
		"RefundRequestID": req.ID,
		"Amount":          req.Amount.String(),
		"BankName":        req.Destination.BankName,
		"AccountSuffix":   accountSuffix(req.Destination.AccountNumber),
	})

	return req, nil
}

func checkRefundable(req domain.RefundRequest, ledger domain.RefundLedger) error {
	if req.Status != domain.RefundStatusPending {
		return domain.ErrRefundAlreadyProcessed
	}

	if ledger.InvoiceStatus != domain.InvoiceStatusPaid {
		return domain.ErrInvoiceNotPaid
	}

	if req.Amount.GreaterThan(ledger.Refundable()) {
		return domain.ErrRefundAmountExceeded
	}

	return nil
}

// Reject closes a PENDING request and puts its tickets back in use.
func (w *RefundWorkflow) Reject(ctx context.Context, id int, note string) (*domain.RefundRequest, error) {
	req, err := w.refunds.Reject(ctx, id, note, w.clock.Now())
	if err != nil {
		return nil, err
	}

	w.metrics.refundsDecided.Add(ctx, 1, metric.WithAttributes(attribute.String("decision", "rejected")))
	w.logger.Info("refund rejected", "refund_request_id", req.ID)

	w.notify(req.RequesterEmail, refundRejectedTemplate, map[string]any{
		"RefundRequestID": req.ID,
		"Note":            note,
	})

	return req, nil
}

// DispatchPayouts sends every recorded payout that has not reached the
// payout topic yet and returns how many were sent.
func (w *RefundWorkflow) DispatchPayouts(ctx context.Context) (int, error) {
	pending, err := w.refunds.ListUndispatchedPayouts(ctx, payoutDispatchBatch)
	if err != nil {
		return 0, err
	}

	var errs []error
	sent := 0

	for _, payout := range pending {
		if err := w.dispatch(ctx, payout); err != nil {
			errs = append(errs, err)
			continue
		}

		sent++
	}

	return sent, errors.Join(errs...)
}

func (w *RefundWorkflow) dispatch(ctx context.Context, payout domain.PayoutInstruction) error {
	if err := w.payouts.PublishPayout(ctx, payout); err != nil {
		return err
	}

	w.metrics.payoutsDispatched.Add(ctx, 1)

	return w.refunds.MarkPayoutDispatched(ctx, payout.ID, w.clock.Now())
}

func (w *RefundWorkflow) notify(recipient, templateFile string, data map[string]any) {
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()

		defer func() {
			if err := recover(); err != nil {
				w.logger.Error("panic while sending refund email", "error", err)
			}
		}()

		if err := w.mailer.Send(recipient, templateFile, data); err != nil {
			w.logger.Error("failed to send refund email",
				"recipient", recipient,
				"template", templateFile,
				"error", err)
		}
	}()
}

// Wait blocks until every queued notification has been attempted.
func (w *RefundWorkflow) Wait() {
	w.wg.Wait()
}

func accountSuffix(account string) string {
	if len(account) <= 4 {
		return account
	}

	return account[len(account)-4:]
}
