package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinex-booking/internal/clock"
	"github.com/metinatakli/cinex-booking/internal/domain"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type ComboSelection struct {
	ComboID  int
	Quantity int
}

type CheckoutRequest struct {
	BuyerEmail           string
	Holder               string
	ScreeningSeatIDs     []int
	Combos               []ComboSelection
	VoucherRedemptionIDs []int
}

type CheckoutResult struct {
	Invoice     *domain.Invoice
	Quote       *domain.Quote
	RedirectURL string
	Status      domain.PaymentStatus
}

type CheckoutService struct {
	seats     domain.SeatRepository
	combos    domain.ComboRepository
	vouchers  domain.VoucherRepository
	invoices  domain.InvoiceRepository
	payments  domain.PaymentRepository
	provider  domain.PaymentProvider
	scheduler domain.HoldScheduler
	events    domain.EventPublisher
	clock     clock.Clock
	logger    *slog.Logger
	metrics   *metrics
}

func NewCheckoutService(
	seats domain.SeatRepository,
	combos domain.ComboRepository,
	vouchers domain.VoucherRepository,
	invoices domain.InvoiceRepository,
	payments domain.PaymentRepository,
	provider domain.PaymentProvider,
	scheduler domain.HoldScheduler,
	events domain.EventPublisher,
	clk clock.Clock,
	logger *slog.Logger) *CheckoutService {

	return &CheckoutService{
		seats:     seats,
		combos:    combos,
		vouchers:  vouchers,
		invoices:  invoices,
		payments:  payments,
		provider:  provider,
		scheduler: scheduler,
		events:    events,
		clock:     clk,
		logger:    logger,
		metrics:   newMetrics(),
	}
}

// Quote prices the request exactly as CreateInvoice would without claiming
// anything.
func (s *CheckoutService) Quote(ctx context.Context, req CheckoutRequest) (*domain.Quote, error) {
	_, quote, err := s.draftInvoice(ctx, req, s.clock.Now())
	if err != nil {
		return nil, err
	}

	return quote, nil
}

// CreateInvoice turns the buyer's selection into BOOKED seats, an invoice
// and a PENDING payment. Either every seat is booked or nothing is written.
// The payment session is opened after commit; if that fails the invoice is
// settled as FAILED, which returns the seats.
func (s *CheckoutService) CreateInvoice(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	now := s.clock.Now()

	invoice, quote, err := s.draftInvoice(ctx, req, now)
	if err != nil {
		return nil, err
	}

	if err = s.invoices.Create(ctx, invoice, now); err != nil {
		return nil, err
	}

	s.metrics.invoicesCreated.Add(ctx, 1)

	if err := s.scheduler.Cancel(ctx, invoice.ScreeningSeatIDs()...); err != nil {
		s.logger.Warn("failed to cancel hold releases for booked seats",
			"invoice_id", invoice.ID,
			"error", err)
	}

	s.publish(ctx, invoice, domain.InvoiceEventCreated, "", now)

	result := &CheckoutResult{
		Invoice: invoice,
		Quote:   quote,
		Status:  domain.PaymentStatusPending,
	}

	if invoice.TotalAmount.IsZero() {
		if err := s.FinalizePayment(ctx, invoice.TransactionID, domain.PaymentStatusSuccess, ""); err != nil {
			return nil, err
		}

		invoice.Status = domain.InvoiceStatusPaid
		result.Status = domain.PaymentStatusSuccess

		return result, nil
	}

	checkoutSession, err := s.provider.CreateCheckoutSession(ctx, invoice)
	if err != nil {
		reason := fmt.Sprintf("payment provider error: %v", err)

		if finalizeErr := s.FinalizePayment(ctx, invoice.TransactionID, domain.PaymentStatusFailed, reason); finalizeErr != nil {
			return nil, errors.Join(fmt.Errorf("create payment session: %w", err), finalizeErr)
		}

		return nil, fmt.Errorf("create payment session: %w", err)
	}

	if err := s.payments.SetProviderReference(ctx, invoice.TransactionID, checkoutSession.Reference); err != nil {
		s.logger.Error("failed to store payment provider reference",
			"transaction_id", invoice.TransactionID,
			"reference", checkoutSession.Reference,
			"error", err)
	}

	result.RedirectURL = checkoutSession.RedirectURL

	return result, nil
}

// FinalizePayment settles a transaction with the provider's outcome.
// Delivering the same outcome again is a no-op; a different outcome for an
// already settled transaction is a conflict.
func (s *CheckoutService) FinalizePayment(
	ctx context.Context,
	transactionID int,
	outcome domain.PaymentStatus,
	reason string) error {

	if !outcome.IsOutcome() {
		return domain.ErrInvalidOutcome
	}

	payment, err := s.payments.GetByID(ctx, transactionID)
	if err != nil {
		return err
	}

	if payment.Status == outcome {
		return nil
	}

	if payment.Status != domain.PaymentStatusPending {
		if outcome == domain.PaymentStatusSuccess {
			return s.flagLateCapture(ctx, payment)
		}

		return domain.ErrPaymentFinalized
	}

	now := s.clock.Now()

	invoice, err := s.invoices.Finalize(ctx, transactionID, outcome, reason, now)
	if err != nil {
		return err
	}

	s.metrics.paymentsSettled.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(outcome))))

	s.logger.Info("payment settled",
		"transaction_id", transactionID,
		"invoice_id", invoice.ID,
		"outcome", outcome)

	eventType := domain.InvoiceEventPaid
	if outcome != domain.PaymentStatusSuccess {
		eventType = domain.InvoiceEventFailed
	}

	s.publish(ctx, invoice, eventType, reason, now)

	return nil
}

// flagLateCapture handles a success reported for a payment that was already
// compensated. The seats are gone, so the money has to go back by hand.
func (s *CheckoutService) flagLateCapture(ctx context.Context, payment *domain.PaymentTransaction) error {
	if err := s.payments.FlagManualRefund(ctx, payment.ID, s.clock.Now()); err != nil {
		return fmt.Errorf("flag transaction %d for manual refund: %w", payment.ID, err)
	}

	s.metrics.paymentsSettled.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "LATE_CAPTURE")))

	s.logger.Error("payment captured after its booking was released",
		"transaction_id", payment.ID,
		"invoice_id", payment.InvoiceID,
		"amount", payment.Amount,
		"status", payment.Status)

	return domain.ErrPaymentFinalized
}

func (s *CheckoutService) publish(
	ctx context.Context,
	invoice *domain.Invoice,
	eventType domain.InvoiceEventType,
	reason string,
	now time.Time) {

	event := domain.InvoiceEvent{
		Type:          eventType,
		InvoiceID:     invoice.ID,
		InvoiceCode:   invoice.Code.String(),
		TransactionID: invoice.TransactionID,
		BuyerEmail:    invoice.BuyerEmail,
		Amount:        invoice.TotalAmount,
		Reason:        reason,
		OccurredAt:    now,
	}

	if err := s.events.PublishInvoiceEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish invoice event",
			"invoice_id", invoice.ID,
			"type", eventType,
			"error", err)
	}
}

func (s *CheckoutService) draftInvoice(
	ctx context.Context,
	req CheckoutRequest,
	now time.Time) (*domain.Invoice, *domain.Quote, error) {

	if err := validateCheckoutRequest(req); err != nil {
		return nil, nil, err
	}

	tickets, ticketSubtotal, err := s.priceSeats(ctx, req, now)
	if err != nil {
		return nil, nil, err
	}

	lines, comboSubtotal, err := s.priceCombos(ctx, req.Combos)
	if err != nil {
		return nil, nil, err
	}

	redemptions, err := s.loadRedemptions(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	quote, err := domain.Price(domain.PriceBreakdown{
		TicketSubtotal: ticketSubtotal,
		ComboSubtotal:  comboSubtotal,
	}, redemptions, now)
	if err != nil {
		return nil, nil, err
	}

	invoice := &domain.Invoice{
		Code:           uuid.New(),
		BuyerEmail:     req.BuyerEmail,
		Holder:         req.Holder,
		TicketSubtotal: quote.TicketSubtotal,
		ComboSubtotal:  quote.ComboSubtotal,
		DiscountTotal:  quote.DiscountTotal,
		TotalAmount:    quote.Total,
		Status:         domain.InvoiceStatusPending,
		Tickets:        tickets,
		Combos:         lines,
		Vouchers:       quote.Applied,
	}

	return invoice, quote, nil
}

func (s *CheckoutService) priceSeats(
	ctx context.Context,
	req CheckoutRequest,
	now time.Time) ([]domain.Ticket, decimal.Decimal, error) {

	seats, err := s.seats.GetByIDs(ctx, req.ScreeningSeatIDs)
	if err != nil {
		return nil, decimal.Zero, err
	}

	byID := make(map[int]domain.ScreeningSeat, len(seats))
	for _, seat := range seats {
		byID[seat.ID] = seat
	}

	tickets := make([]domain.Ticket, 0, len(req.ScreeningSeatIDs))
	subtotal := decimal.Zero
	screeningID := 0

	for _, id := range req.ScreeningSeatIDs {
		seat, ok := byID[id]
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("screening seat %d: %w", id, domain.ErrRecordNotFound)
		}

		if screeningID == 0 {
			screeningID = seat.ScreeningID
		} else if seat.ScreeningID != screeningID {
			return nil, decimal.Zero, domain.ErrMixedScreenings
		}

		if !seat.ScreeningStatus.OnSale() {
			return nil, decimal.Zero, domain.ErrScreeningClosed
		}

		if !seat.ClaimableBy(req.Holder, now) {
			return nil, decimal.Zero, fmt.Errorf("screening seat %d: %w", id, domain.ErrSeatUnavailable)
		}

		price := seat.Price()
		subtotal = subtotal.Add(price)

		tickets = append(tickets, domain.Ticket{
			ScreeningSeatID: seat.ID,
			Row:             seat.Row,
			Col:             seat.Col,
			Price:           price,
			Status:          domain.TicketStatusIssued,
		})
	}

	return tickets, subtotal, nil
}

func (s *CheckoutService) priceCombos(
	ctx context.Context,
	selections []ComboSelection) ([]domain.ComboLineItem, decimal.Decimal, error) {

	if len(selections) == 0 {
		return nil, decimal.Zero, nil
	}

	ids := make([]int, len(selections))
	for i, sel := range selections {
		ids[i] = sel.ComboID
	}

	combos, err := s.combos.GetByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, err
	}

	byID := make(map[int]domain.Combo, len(combos))
	for _, c := range combos {
		byID[c.ID] = c
	}

	lines := make([]domain.ComboLineItem, 0, len(selections))
	subtotal := decimal.Zero

	for _, sel := range selections {
		combo, ok := byID[sel.ComboID]
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("combo %d: %w", sel.ComboID, domain.ErrRecordNotFound)
		}

		line := domain.ComboLineItem{
			ComboID:   combo.ID,
			Name:      combo.Name,
			Quantity:  sel.Quantity,
			UnitPrice: combo.Price,
		}

		subtotal = subtotal.Add(line.Subtotal())
		lines = append(lines, line)
	}

	return lines, subtotal, nil
}

// loadRedemptions returns the requested redemptions. A redemption owned by
// someone else is reported as missing.
func (s *CheckoutService) loadRedemptions(ctx context.Context, req CheckoutRequest) ([]domain.VoucherRedemption, error) {
	if len(req.VoucherRedemptionIDs) == 0 {
		return nil, nil
	}

	redemptions, err := s.vouchers.GetRedemptionsByIDs(ctx, req.VoucherRedemptionIDs)
	if err != nil {
		return nil, err
	}

	byID := make(map[int]domain.VoucherRedemption, len(redemptions))
	for _, r := range redemptions {
		byID[r.ID] = r
	}

	ordered := make([]domain.VoucherRedemption, 0, len(req.VoucherRedemptionIDs))

	for _, id := range req.VoucherRedemptionIDs {
		r, ok := byID[id]
		if !ok || !strings.EqualFold(r.OwnerEmail, req.BuyerEmail) {
			return nil, fmt.Errorf("voucher redemption %d: %w", id, domain.ErrRecordNotFound)
		}

		ordered = append(ordered, r)
	}

	return ordered, nil
}

func validateCheckoutRequest(req CheckoutRequest) error {
	if req.Holder == "" {
		return domain.ErrMissingHolder
	}

	if strings.TrimSpace(req.BuyerEmail) == "" {
		return fmt.Errorf("%w: buyer email is required", domain.ErrInvalidCheckout)
	}

	if len(req.ScreeningSeatIDs) == 0 {
		return fmt.Errorf("%w: at least one seat is required", domain.ErrInvalidCheckout)
	}

	if id, dup := firstDuplicate(req.ScreeningSeatIDs); dup {
		return fmt.Errorf("%w: seat %d is listed more than once", domain.ErrInvalidCheckout, id)
	}

	comboIDs := make([]int, len(req.Combos))
	for i, c := range req.Combos {
		if c.Quantity <= 0 {
			return fmt.Errorf("%w: combo %d quantity must be positive", domain.ErrInvalidCheckout, c.ComboID)
		}

		comboIDs[i] = c.ComboID
	}

	if id, dup := firstDuplicate(comboIDs); dup {
		return fmt.Errorf("%w: combo %d is listed more than once", domain.ErrInvalidCheckout, id)
	}

	if id, dup := firstDuplicate(req.VoucherRedemptionIDs); dup {
		return fmt.Errorf("%w: voucher redemption %d is listed more than once", domain.ErrInvalidCheckout, id)
	}

	return nil
}

func firstDuplicate(ids []int) (int, bool) {
	seen := make(map[int]struct{}, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return id, true
		}

		seen[id] = struct{}{}
	}

	return 0, false
}
