package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/metinatakli/cinex-booking/internal/domain"
)

// MockPaymentProvider hands out predictable sessions without calling Stripe.
type MockPaymentProvider struct {
	mu       sync.Mutex
	Err      error
	invoices []int
}

func NewMockPaymentProvider() *MockPaymentProvider {
	return &MockPaymentProvider{}
}

func (m *MockPaymentProvider) CreateCheckoutSession(
	ctx context.Context,
	invoice *domain.Invoice) (*domain.CheckoutSession, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}

	m.invoices = append(m.invoices, invoice.ID)

	return &domain.CheckoutSession{
		Reference:   fmt.Sprintf("cs_test_%d", invoice.TransactionID),
		RedirectURL: fmt.Sprintf("https://checkout.example.com/pay/%s", invoice.Code),
	}, nil
}

// Invoices returns the invoice ids sessions were created for.
func (m *MockPaymentProvider) Invoices() []int {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int, len(m.invoices))
	copy(ids, m.invoices)
	return ids
}
