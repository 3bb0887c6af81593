package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"github.com/JonMunkholm/csvintake/internal/config"
)

// smtpClient is the subset of *smtp.Client used for delivery.
type smtpClient interface {
	StartTLS(*tls.Config) error
	Auth(smtp.Auth) error
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// dialFunc opens a client session with the relay.
type dialFunc func(ctx context.Context, addr string) (smtpClient, error)

// SMTPSender sends mail through a relay that requires STARTTLS and PLAIN auth.
type SMTPSender struct {
	host     string
	addr     string
	user     string
	password string
	timeout  time.Duration
	template Template
	dial     dialFunc
	logger   *slog.Logger
}

// SMTPOption configures an SMTPSender.
type SMTPOption func(*SMTPSender)

// WithLogger sets the logger for delivery diagnostics.
func WithLogger(l *slog.Logger) SMTPOption {
	return func(s *SMTPSender) { s.logger = l }
}

// WithTemplate replaces the default message template.
func WithTemplate(t Template) SMTPOption {
	return func(s *SMTPSender) { s.template = t }
}

// withDialer replaces the network dialer. Used by tests.
func withDialer(d dialFunc) SMTPOption {
	return func(s *SMTPSender) { s.dial = d }
}

// NewSMTPSender creates a sender from mail settings.
// Credentials are expected to be validated by the caller.
func NewSMTPSender(cfg config.MailConfig, opts ...SMTPOption) *SMTPSender {
	s := &SMTPSender{
		host:     cfg.Host,
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		user:     cfg.User,
		password: cfg.Password,
		timeout:  cfg.Timeout,
		template: DefaultTemplate(cfg.SenderName),
		dial:     dialSMTP,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send delivers msg. The session is always closed before returning.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	to, err := validateRecipient(msg.To)
	if err != nil {
		return err
	}
	msg.To = to

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	c, err := s.dial(ctx, s.addr)
	if err != nil {
		return fmt.Errorf("%w: connect %s: %v", ErrTransport, s.addr, err)
	}

	if err := s.deliver(c, msg); err != nil {
		c.Close()
		s.logger.Warn("email delivery failed", "to", to, "relay", s.addr, "error", err)
		return err
	}

	if err := c.Quit(); err != nil {
		s.logger.Debug("smtp quit failed", "error", err)
	}
	s.logger.Info("email sent", "to", to, "relay", s.addr)
	return nil
}

func (s *SMTPSender) deliver(c smtpClient, msg Message) error {
	if err := c.StartTLS(&tls.Config{ServerName: s.host, MinVersion: tls.VersionTLS12}); err != nil {
		return fmt.Errorf("%w: starttls: %v", ErrTransport, err)
	}

	if err := c.Auth(smtp.PlainAuth("", s.user, s.password, s.host)); err != nil {
		if isAuthRejection(err) {
			return fmt.Errorf("%w: %v", ErrAuthentication, err)
		}
		return fmt.Errorf("%w: auth: %v", ErrTransport, err)
	}

	if err := c.Mail(s.user); err != nil {
		return fmt.Errorf("%w: mail from: %v", ErrTransport, err)
	}
	if err := c.Rcpt(msg.To); err != nil {
		return fmt.Errorf("%w: rcpt to: %v", ErrTransport, err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("%w: data: %v", ErrTransport, err)
	}
	if _, err := w.Write(s.template.Compose(s.user, msg)); err != nil {
		w.Close()
		return fmt.Errorf("%w: write body: %v", ErrTransport, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: end data: %v", ErrTransport, err)
	}
	return nil
}

// isAuthRejection reports whether err is a permanent reply to AUTH.
// 530, 534 and 535 are the credential related replies.
func isAuthRejection(err error) bool {
	var tpErr *textproto.Error
	if !errors.As(err, &tpErr) {
		return false
	}
	switch tpErr.Code {
	case 530, 534, 535:
		return true
	}
	return false
}

func dialSMTP(ctx context.Context, addr string) (smtpClient, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}
