package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
)

// ErrNoRecipient is returned when a notification has no address to go to.
var ErrNoRecipient = errors.New("notification recipient missing")

// Notifier delivers a plain-text message to a department mailbox.
type Notifier interface {
	Notify(ctx context.Context, to, subject, body string) error
}

// New returns an SMTP notifier when a relay is configured and a logging no-op otherwise.
func New(cfg config.NotificationConfig, logger *zap.Logger) Notifier {
	if !cfg.MailEnabled() {
		logger.Info("SMTP_HOST not set; department notifications are logged only")
		return &noopNotifier{logger: logger}
	}
	return &smtpNotifier{cfg: cfg, logger: logger}
}

type noopNotifier struct {
	logger *zap.Logger
}

func (n *noopNotifier) Notify(_ context.Context, to, subject, _ string) error {
	n.logger.Debug("notification skipped", zap.String("to", to), zap.String("subject", subject))
	return nil
}

type smtpNotifier struct {
	cfg    config.NotificationConfig
	logger *zap.Logger
}

func (n *smtpNotifier) Notify(ctx context.Context, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return ErrNoRecipient
	}

	msg := mail.NewMsg()
	if err := msg.From(n.cfg.EmailFrom); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(n.cfg.SMTPHost, n.clientOptions()...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	n.logger.Info("notification sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func (n *smtpNotifier) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(n.cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if n.cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.cfg.SMTPUsername),
			mail.WithPassword(n.cfg.SMTPPassword),
		)
	}
	return opts
}

// ComplaintMessage renders the department notification for a complaint.
func ComplaintMessage(c *domain.Complaint, baseURL string) (subject, body string) {
	subject = "New Complaint: " + c.Title
	body = fmt.Sprintf("Complaint Details:\nTitle: %s\nCategory: %s\nDescription: %s\nView at: %s/complaints/%d",
		c.Title,
		c.Category,
		c.Description,
		strings.TrimRight(baseURL, "/"),
		c.ID,
	)
	return subject, body
}
