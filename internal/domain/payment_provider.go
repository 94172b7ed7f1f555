package domain

import "context"

type CheckoutSession struct {
	Reference   string
	RedirectURL string
}

type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, invoice *Invoice) (*CheckoutSession, error)
}
