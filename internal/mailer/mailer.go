// Package mailer delivers templated notification emails through an
// authenticated SMTP relay.
//
// Callers depend on [Sender]; [SMTPSender] is the production implementation.
// Authentication failures are reported as [ErrAuthentication] so they can be
// told apart from [ErrTransport] (network, TLS, or relay rejections).
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

var (
	// ErrAuthentication is returned when the relay rejects the credentials.
	ErrAuthentication = errors.New("authentication failed")

	// ErrTransport is returned for any other delivery failure.
	ErrTransport = errors.New("delivery failed")

	// ErrInvalidRecipient is returned before connecting when the recipient
	// is not a single valid address.
	ErrInvalidRecipient = errors.New("invalid recipient address")
)

// Message is one outbound email. Body is wrapped in the standard template.
type Message struct {
	To   string
	Body string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Template is the fixed envelope around every message body.
type Template struct {
	SenderName string
	Subject    string
	Signature  string
}

// DefaultTemplate returns the template used for all outbound mail.
func DefaultTemplate(senderName string) Template {
	return Template{
		SenderName: senderName,
		Subject:    "Message from " + senderName,
		Signature:  "Best regards,\r\n" + senderName + " Team",
	}
}

// Compose renders the full RFC 5322 message from the sending address.
func (t Template) Compose(from string, msg Message) []byte {
	var b strings.Builder
	fromHeader := (&mail.Address{Name: t.SenderName, Address: from}).String()

	b.WriteString("From: " + fromHeader + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + t.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(normalizeNewlines(msg.Body))
	b.WriteString("\r\n\r\n")
	b.WriteString(t.Signature)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// validateRecipient accepts exactly one bare address.
func validateRecipient(to string) (string, error) {
	if strings.ContainsAny(to, "\r\n") {
		return "", fmt.Errorf("%w: %q", ErrInvalidRecipient, to)
	}
	addr, err := mail.ParseAddress(to)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidRecipient, to, err)
	}
	return addr.Address, nil
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}
