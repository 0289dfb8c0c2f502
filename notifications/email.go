package notifications

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"
	"time"

	"mkulimalink-monitor/config"
)

// EmailNotifier sends alerts over SMTP to the configured recipient list
type EmailNotifier struct {
	cfg config.AlertConfig
}

// NewEmailNotifier creates an SMTP notifier from the alert configuration
func NewEmailNotifier(cfg config.AlertConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg}
}

// Notify sends one alert email. When no sender is configured the alert is
// skipped with a log line, mirroring an intentionally alert-less deployment.
func (e *EmailNotifier) Notify(ctx context.Context, subject, body string) error {
	if e.cfg.SenderEmail == "" {
		log.Println("⚠️  Email configuration not set, skipping alert")
		return nil
	}
	if len(e.cfg.AlertRecipients) == 0 {
		log.Println("⚠️  No alert recipients configured, skipping alert")
		return nil
	}

	message := e.buildMessage(subject, body)
	addr := fmt.Sprintf("%s:%s", e.cfg.SMTPServer, e.cfg.SMTPPort)
	auth := smtp.PlainAuth("", e.cfg.SenderEmail, e.cfg.SenderPassword, e.cfg.SMTPServer)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, e.cfg.SenderEmail, e.cfg.AlertRecipients, message)
	}()

	// smtp.SendMail has no context support; bound it here so a wedged SMTP
	// server cannot stall the caller.
	select {
	case err := <-done:
		if err != nil {
			return &NotificationError{Transport: "smtp", Err: err}
		}
	case <-ctx.Done():
		return &NotificationError{Transport: "smtp", Err: ctx.Err()}
	}

	log.Printf("📧 Alert email sent: %s", subject)
	return nil
}

// buildMessage renders the alert email body
func (e *EmailNotifier) buildMessage(subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.cfg.SenderEmail)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(e.cfg.AlertRecipients, ", "))
	fmt.Fprintf(&b, "Subject: MkulimaLink ML Alert: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")

	fmt.Fprintf(&b, "MkulimaLink ML Monitoring Alert\r\n\r\n%s\r\n\r\n", body)
	fmt.Fprintf(&b, "Timestamp: %s\r\n\r\n", time.Now().Format(time.RFC3339))
	b.WriteString("Please check the ML monitoring dashboard for details.\r\n")

	return []byte(b.String())
}
