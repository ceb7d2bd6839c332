package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"ArxivDigest/internal/config"
	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
)

// Mailer delivers the digest via SMTP submission with STARTTLS.
type Mailer struct {
	cfg  config.EmailConfig
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

var _ ports.Deliverer = (*Mailer)(nil)

// NewMailer wires SMTP credentials from configuration.
func NewMailer(cfg config.EmailConfig) *Mailer {
	return &Mailer{
		cfg:  cfg,
		send: smtp.SendMail,
	}
}

// Channel identifies the delivery path.
func (m *Mailer) Channel() domain.DeliveryChannel {
	return domain.ChannelEmail
}

// Deliver submits the digest to the configured recipient. The date fills the
// "{date}" placeholder in the subject template.
func (m *Mailer) Deliver(_ context.Context, digest string, date time.Time) domain.DeliveryResult {
	result := domain.DeliveryResult{Channel: domain.ChannelEmail, Target: m.cfg.Recipient}

	if err := m.validate(); err != nil {
		result.Err = &domain.DeliveryError{Channel: domain.ChannelEmail, Err: err}
		return result
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPServer, m.cfg.SMTPPort)
	auth := smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPassword, m.cfg.SMTPServer)
	msg := buildMessage(m.cfg.SMTPUser, m.cfg.Recipient, renderSubject(m.cfg.Subject, date), digest)

	if err := m.send(addr, auth, m.cfg.SMTPUser, []string{m.cfg.Recipient}, msg); err != nil {
		result.Err = &domain.DeliveryError{Channel: domain.ChannelEmail, Err: fmt.Errorf("smtp send: %w", err)}
	}

	return result
}

func (m *Mailer) validate() error {
	switch {
	case m.cfg.SMTPServer == "":
		return fmt.Errorf("smtp server is not configured")
	case m.cfg.SMTPUser == "":
		return fmt.Errorf("smtp user is not configured")
	case m.cfg.SMTPPassword == "":
		return fmt.Errorf("smtp password is not configured")
	case m.cfg.Recipient == "":
		return fmt.Errorf("recipient is not configured")
	}
	return nil
}

// renderSubject substitutes the run date into the subject template.
func renderSubject(template string, date time.Time) string {
	if template == "" {
		template = "arXiv Digest - {date}"
	}
	return strings.ReplaceAll(template, "{date}", date.Format("2006-01-02"))
}

// buildMessage assembles an RFC 5322 plain-text message with CRLF endings.
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))

	return []byte(b.String())
}
