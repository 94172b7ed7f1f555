package payment

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/metinatakli/cinex-booking/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

const (
	MetadataTransactionID = "transaction_id"
	MetadataInvoiceID     = "invoice_id"
	MetadataInvoiceCode   = "invoice_code"
)

// zeroDecimalCurrencies are charged in whole units rather than cents.
var zeroDecimalCurrencies = map[string]bool{
	"vnd": true,
	"jpy": true,
	"krw": true,
}

type StripePaymentProvider struct {
	failureUrl string
	successUrl string
	currency   string
}

func NewStripePaymentProvider(failureUrl, successUrl, currency string) *StripePaymentProvider {
	return &StripePaymentProvider{
		failureUrl: failureUrl,
		successUrl: successUrl,
		currency:   strings.ToLower(currency),
	}
}

func (s *StripePaymentProvider) CreateCheckoutSession(
	ctx context.Context,
	invoice *domain.Invoice) (*domain.CheckoutSession, error) {

	params := &stripe.CheckoutSessionParams{
		LineItems:  s.lineItems(invoice),
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.successUrl),
		CancelURL:  stripe.String(s.failureUrl),
		Metadata: map[string]string{
			MetadataTransactionID: strconv.Itoa(invoice.TransactionID),
			MetadataInvoiceID:     strconv.Itoa(invoice.ID),
			MetadataInvoiceCode:   invoice.Code.String(),
		},
		CustomerEmail:     stripe.String(invoice.BuyerEmail),
		ClientReferenceID: stripe.String(invoice.Code.String()),
	}
	params.Context = ctx

	checkoutSession, err := session.New(params)
	if err != nil {
		return nil, err
	}

	return &domain.CheckoutSession{
		Reference:   checkoutSession.ID,
		RedirectURL: checkoutSession.URL,
	}, nil
}

// lineItems itemises the invoice. Stripe does not accept negative lines, so
// a discounted invoice is charged as a single line for its total.
func (s *StripePaymentProvider) lineItems(invoice *domain.Invoice) []*stripe.CheckoutSessionLineItemParams {
	if invoice.DiscountTotal.IsPositive() {
		return []*stripe.CheckoutSessionLineItemParams{
			s.lineItem(
				fmt.Sprintf("Cinex order %s", invoice.Code),
				fmt.Sprintf("%d ticket(s), %d combo line(s), vouchers applied", len(invoice.Tickets), len(invoice.Combos)),
				invoice.TotalAmount,
				1,
			),
		}
	}

	var lineItems []*stripe.CheckoutSessionLineItemParams

	for _, ticket := range invoice.Tickets {
		lineItems = append(lineItems, s.lineItem(
			fmt.Sprintf("Ticket - Row %d Seat %d", ticket.Row, ticket.Col),
			fmt.Sprintf("Order %s", invoice.Code),
			ticket.Price,
			1,
		))
	}

	for _, combo := range invoice.Combos {
		lineItems = append(lineItems, s.lineItem(
			combo.Name,
			fmt.Sprintf("Order %s", invoice.Code),
			combo.UnitPrice,
			int64(combo.Quantity),
		))
	}

	return lineItems
}

func (s *StripePaymentProvider) lineItem(
	name, description string,
	amount decimal.Decimal,
	quantity int64) *stripe.CheckoutSessionLineItemParams {

	return &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(s.currency),
			UnitAmount: stripe.Int64(MinorUnits(amount, s.currency)),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name:        stripe.String(name),
				Description: stripe.String(description),
			},
		},
		Quantity: stripe.Int64(quantity),
	}
}

// MinorUnits converts an amount into the smallest unit Stripe charges in for
// the currency.
func MinorUnits(amount decimal.Decimal, currency string) int64 {
	if zeroDecimalCurrencies[strings.ToLower(currency)] {
		return amount.Round(0).IntPart()
	}

	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
