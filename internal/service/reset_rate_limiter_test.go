package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T) (*ResetRateLimiter, *time.Time) {
	t.Helper()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := &base
	l := NewResetRateLimiter(filepath.Join(t.TempDir(), "limits.json"), 5*time.Minute, 1)
	l.now = func() time.Time { return *now }
	return l, now
}

func TestResetRateLimiterFirstAttemptAllowed(t *testing.T) {
	l, _ := newTestLimiter(t)

	d := l.Check(context.Background(), "user@example.com")
	if !d.Allowed {
		t.Fatalf("expected first attempt allowed, got %+v", d)
	}
}

func TestResetRateLimiterHourlyCap(t *testing.T) {
	l, now := newTestLimiter(t)
	ctx := context.Background()

	l.Record(ctx, "user@example.com")
	*now = now.Add(10 * time.Minute)

	d := l.Check(ctx, "user@example.com")
	if d.Allowed {
		t.Fatal("expected denial under hourly cap")
	}
	if !strings.Contains(d.Message, "Too many password reset attempts") {
		t.Fatalf("unexpected message: %q", d.Message)
	}
	if d.RetryAfter != 50*time.Minute {
		t.Fatalf("RetryAfter = %v, want 50m", d.RetryAfter)
	}
}

func TestResetRateLimiterCooldown(t *testing.T) {
	l, now := newTestLimiter(t)
	l.hourlyCap = 5
	ctx := context.Background()

	l.Record(ctx, "user@example.com")
	*now = now.Add(2 * time.Minute)

	d := l.Check(ctx, "user@example.com")
	if d.Allowed {
		t.Fatal("expected denial within cooldown")
	}
	if !strings.Contains(d.Message, "Please wait") {
		t.Fatalf("unexpected message: %q", d.Message)
	}
}

func TestResetRateLimiterExpiresAfterWindow(t *testing.T) {
	l, now := newTestLimiter(t)
	ctx := context.Background()

	l.Record(ctx, "user@example.com")
	*now = now.Add(61 * time.Minute)

	if d := l.Check(ctx, "user@example.com"); !d.Allowed {
		t.Fatalf("expected allow after window, got %+v", d)
	}
}

func TestResetRateLimiterKeysAreCaseInsensitive(t *testing.T) {
	l, now := newTestLimiter(t)
	ctx := context.Background()

	l.Record(ctx, "User@Example.COM")
	*now = now.Add(time.Minute)

	if d := l.Check(ctx, "user@example.com"); d.Allowed {
		t.Fatal("expected case-insensitive keying to deny")
	}
}

func TestResetRateLimiterFailsOpenOnMalformedFile(t *testing.T) {
	l, _ := newTestLimiter(t)
	if err := os.WriteFile(l.path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if d := l.Check(context.Background(), "user@example.com"); !d.Allowed {
		t.Fatalf("expected fail-open on malformed ledger, got %+v", d)
	}
}

func TestResetRateLimiterPrunesOldAttempts(t *testing.T) {
	l, now := newTestLimiter(t)
	ctx := context.Background()

	l.Record(ctx, "old@example.com")
	*now = now.Add(3 * time.Hour)
	l.Record(ctx, "new@example.com")

	ledger, err := l.readLedger()
	if err != nil {
		t.Fatal(err)
	}
	if len(ledger["old@example.com"]) != 0 {
		t.Fatalf("expected old attempts pruned, ledger: %+v", ledger)
	}
	if len(ledger["new@example.com"]) != 1 {
		t.Fatalf("expected new attempt retained, ledger: %+v", ledger)
	}
}
