// internal/app/system/mailer/mailer.go
package mailer

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	mail "github.com/go-mail/mail/v2"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned by Send when no SMTP host or sender address
// has been configured.
var ErrNotConfigured = errors.New("mailer not configured")

// Email is a single outgoing message. TextBody is required; HTMLBody is sent
// as an alternative part when present.
type Email struct {
	To       string
	ReplyTo  string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers an Email. Handlers depend on this interface so tests can
// swap in a Recorder.
type Sender interface {
	Send(e Email) error
}

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	Timeout  time.Duration
}

// Mailer sends email over SMTP with STARTTLS when the server offers it.
type Mailer struct {
	cfg    Config
	dialer *mail.Dialer
	log    *zap.Logger
}

// New builds a Mailer. A Mailer with an empty host or from address is valid
// but every Send returns ErrNotConfigured.
func New(cfg Config, logger *zap.Logger) *Mailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	m := &Mailer{cfg: cfg, log: logger}
	if m.Configured() {
		d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
		d.StartTLSPolicy = mail.OpportunisticStartTLS
		d.TLSConfig = &tls.Config{ServerName: cfg.Host}
		d.Timeout = cfg.Timeout
		m.dialer = d
	}
	return m
}

// Configured reports whether SMTP delivery is possible.
func (m *Mailer) Configured() bool {
	return strings.TrimSpace(m.cfg.Host) != "" && strings.TrimSpace(m.cfg.From) != ""
}

// Send delivers e. It dials a new connection per message; volume here is a
// handful of notifications per request.
func (m *Mailer) Send(e Email) error {
	if !m.Configured() {
		return ErrNotConfigured
	}
	if strings.TrimSpace(e.To) == "" {
		return errors.New("mailer: empty recipient")
	}

	msg := mail.NewMessage()
	if m.cfg.FromName != "" {
		msg.SetAddressHeader("From", m.cfg.From, m.cfg.FromName)
	} else {
		msg.SetHeader("From", m.cfg.From)
	}
	msg.SetHeader("To", e.To)
	if e.ReplyTo != "" {
		msg.SetHeader("Reply-To", e.ReplyTo)
	}
	msg.SetHeader("Subject", e.Subject)
	msg.SetBody("text/plain", e.TextBody)
	if e.HTMLBody != "" {
		msg.AddAlternative("text/html", e.HTMLBody)
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", e.To, err)
	}
	if m.log != nil {
		m.log.Debug("email sent", zap.String("to", e.To), zap.String("subject", e.Subject))
	}
	return nil
}

// Recorder is an in-memory Sender. It records every message and returns Err
// (if set) from Send.
type Recorder struct {
	mu   sync.Mutex
	sent []Email
	Err  error
}

// Send records e.
func (r *Recorder) Send(e Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, e)
	return nil
}

// Sent returns a copy of the recorded messages.
func (r *Recorder) Sent() []Email {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Email, len(r.sent))
	copy(out, r.sent)
	return out
}

// Last returns the most recent message, if any.
func (r *Recorder) Last() (Email, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return Email{}, false
	}
	return r.sent[len(r.sent)-1], true
}

// Outcome converts a Send error into the (emailSent, emailError) pair the
// API returns alongside side-effecting writes.
func Outcome(err error) (bool, *string) {
	if err == nil {
		return true, nil
	}
	msg := err.Error()
	return false, &msg
}
