package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"net/url"
	"strings"
	"time"

	"bookvault/internal/config"
	"bookvault/internal/observability"
)

// EmailSender delivers a single message. Implementations are expected to be
// safe for concurrent use.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPEmailSender sends through a plain SMTP relay. When SMTP is disabled
// the sender logs the message and reports success, which keeps local
// development working without a relay.
type SMTPEmailSender struct {
	enabled  bool
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
}

func NewSMTPEmailSender(cfg *config.Config) *SMTPEmailSender {
	return &SMTPEmailSender{
		enabled:  cfg.SMTPEnabled,
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.FromEmail,
		fromName: cfg.FromName,
	}
}

func (s *SMTPEmailSender) Send(ctx context.Context, to, subject, body string) error {
	if !s.enabled {
		slog.InfoContext(ctx, "smtp disabled, logging email instead", "to", to, "subject", subject)
		return nil
	}

	msg := strings.Join([]string{
		fmt.Sprintf("From: %s <%s>", s.fromName, s.from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}
	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// ThrottledEmailService wraps a sender with per-kind throttles and renders
// the account mail bodies.
type ThrottledEmailService struct {
	sender         EmailSender
	resetThrottle  *EmailThrottle
	verifyThrottle *EmailThrottle
	baseURL        string
}

func NewThrottledEmailService(sender EmailSender, baseURL string) *ThrottledEmailService {
	return &ThrottledEmailService{
		sender:         sender,
		resetThrottle:  NewEmailThrottle(2*time.Minute, 5),
		verifyThrottle: NewEmailThrottle(5*time.Minute, 10),
		baseURL:        strings.TrimRight(baseURL, "/"),
	}
}

func (s *ThrottledEmailService) SendPasswordReset(ctx context.Context, to, resetLink string) error {
	if err := s.resetThrottle.Allow(to); err != nil {
		observability.RecordEmailSend("password_reset", "throttled")
		return err
	}
	body := fmt.Sprintf(`<p>We received a request to reset your password.</p>
<p><a href="%s">Reset your password</a></p>
<p>This link expires in 1 hour. If you did not request a reset, you can ignore this email.</p>`, resetLink)
	if err := s.sender.Send(ctx, to, "Reset your password", body); err != nil {
		observability.RecordEmailSend("password_reset", "error")
		return err
	}
	observability.RecordEmailSend("password_reset", "sent")
	return nil
}

func (s *ThrottledEmailService) SendVerification(ctx context.Context, to, token string) error {
	if err := s.verifyThrottle.Allow(to); err != nil {
		observability.RecordEmailSend("verification", "throttled")
		return err
	}
	link := fmt.Sprintf("%s/account/verify-email?email=%s&token=%s", s.baseURL, url.QueryEscape(to), token)
	body := fmt.Sprintf(`<p>Welcome! Please confirm your email address.</p>
<p><a href="%s">Verify your email</a></p>
<p>This link expires in 24 hours.</p>`, link)
	if err := s.sender.Send(ctx, to, "Verify your email address", body); err != nil {
		observability.RecordEmailSend("verification", "error")
		return err
	}
	observability.RecordEmailSend("verification", "sent")
	return nil
}

// CleanupThrottles removes stale throttle entries and returns the count.
func (s *ThrottledEmailService) CleanupThrottles() int {
	return s.resetThrottle.CleanupOldEntries() + s.verifyThrottle.CleanupOldEntries()
}
