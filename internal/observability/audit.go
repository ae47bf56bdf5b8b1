package observability

import (
	"context"
	"log/slog"
)

// AuditEvent echoes a durable audit-trail write to the structured log so
// security events are visible without a database query.
func AuditEvent(ctx context.Context, action, actor string, attrs ...any) {
	base := []any{
		"event", action,
		"actor", actor,
	}
	base = append(base, attrs...)
	slog.InfoContext(ctx, "audit", base...)
}
