package service

import (
	"context"
	"log/slog"
	"time"

	"bookvault/internal/domain"
	"bookvault/internal/observability"
	"bookvault/internal/repository"
	"bookvault/internal/security"
)

// AuditOption attaches optional detail to an audit entry.
type AuditOption func(*domain.AuditTrail)

func WithOldValue(v string) AuditOption {
	return func(e *domain.AuditTrail) { e.OldValue = &v }
}

func WithNewValue(v string) AuditOption {
	return func(e *domain.AuditTrail) { e.NewValue = &v }
}

func WithDescription(v string) AuditOption {
	return func(e *domain.AuditTrail) { e.Description = &v }
}

// WithActor overrides the actor normally taken from the request principal.
// Used on flows where no session exists yet, such as registration.
func WithActor(userID string) AuditOption {
	return func(e *domain.AuditTrail) { e.UserID = userID }
}

// AuditService appends entries to the persistent trail and echoes each one
// to the structured log. Recording failures never fail the calling
// operation.
type AuditService struct {
	repo repository.AuditRepository
	now  func() time.Time
}

func NewAuditService(repo repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo, now: time.Now}
}

// Log resolves the actor from the request principal unless WithActor is
// given, falling back to "Unknown" for anonymous flows.
func (s *AuditService) Log(ctx context.Context, action string, opts ...AuditOption) {
	entry := &domain.AuditTrail{
		Action:    action,
		Timestamp: s.now().UTC(),
	}
	if p, ok := security.PrincipalFromContext(ctx); ok && p.HasSubjectClaim() {
		entry.UserID = p.Subject
	}
	for _, opt := range opts {
		opt(entry)
	}
	if entry.UserID == "" {
		entry.UserID = "Unknown"
	}

	observability.AuditEvent(ctx, action, entry.UserID,
		"old_value", deref(entry.OldValue),
		"new_value", deref(entry.NewValue),
		"description", deref(entry.Description),
	)

	if err := s.repo.Append(entry); err != nil {
		slog.ErrorContext(ctx, "audit append failed", "action", action, "error", err)
	}
}

// List returns recent entries, newest first.
func (s *AuditService) List(limit, offset int) ([]domain.AuditTrail, error) {
	return s.repo.List(limit, offset)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
