package common

// EmailSender delivers transactional mail. The production implementation
// is provided by the deployment; NopEmailSender stands in until one is
// configured.
type EmailSender interface {
	Send(to, subject, html string) error
}

// Email is one captured message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// InMemoryEmail collects sent mail for assertions in tests.
type InMemoryEmail struct {
	Outbox []Email
}

func (m *InMemoryEmail) Send(to, subject, html string) error {
	if m == nil {
		return nil
	}
	m.Outbox = append(m.Outbox, Email{To: to, Subject: subject, HTML: html})
	return nil
}

// NopEmailSender discards all mail.
type NopEmailSender struct{}

func (NopEmailSender) Send(string, string, string) error { return nil }
