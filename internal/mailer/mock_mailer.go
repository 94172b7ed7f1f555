package mailer

import (
	"sync"
)

type Email struct {
	Recipient    string
	TemplateFile string
	Data         any
}

// MockMailer records emails instead of delivering them. Setting Err makes
// every Send fail without recording.
type MockMailer struct {
	mu     sync.RWMutex
	emails []Email
	Err    error
}

func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

func (m *MockMailer) Send(recipient, templateFile string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}

	m.emails = append(m.emails, Email{
		Recipient:    recipient,
		TemplateFile: templateFile,
		Data:         data,
	})

	return nil
}

func (m *MockMailer) GetSentEmails() []Email {
	m.mu.RLock()
	defer m.mu.RUnlock()

	emails := make([]Email, len(m.emails))
	copy(emails, m.emails)
	return emails
}

// SentTo returns the template files sent to recipient, in order.
func (m *MockMailer) SentTo(recipient string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var templates []string
	for _, e := range m.emails {
		if e.Recipient == recipient {
			templates = append(templates, e.TemplateFile)
		}
	}

	return templates
}

func (m *MockMailer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.emails = nil
}
