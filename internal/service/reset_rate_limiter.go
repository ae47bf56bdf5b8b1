package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"bookvault/internal/observability"
)

// ledgerRetention is how far back attempts are kept when the ledger is
// rewritten, twice the hourly cap window.
const ledgerRetention = 2 * time.Hour

type RateLimitDecision struct {
	Allowed    bool
	RetryAfter time.Duration
	Message    string
}

// RateLimitedError surfaces a denied decision to callers that need to tell
// throttling apart from other failures. The text is shown to the user as-is.
type RateLimitedError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string { return e.Message }

// ResetRateLimiter caps password-reset requests per lowercased email with a
// short cooldown plus an hourly cap, persisted as a flat JSON file mapping
// email to attempt timestamps.
//
// Check and Record are two separate read-modify-write cycles against the
// file. Two truly concurrent requests can both pass Check before either
// Records; the mutex serializes in-process callers but the cross-step window
// is inherited from the source design and deliberately left open.
type ResetRateLimiter struct {
	mu        sync.Mutex
	path      string
	cooldown  time.Duration
	hourlyCap int
	now       func() time.Time
}

func NewResetRateLimiter(path string, cooldown time.Duration, hourlyCap int) *ResetRateLimiter {
	if cooldown <= 0 {
		cooldown = 5 * time.Minute
	}
	if hourlyCap < 1 {
		hourlyCap = 1
	}
	return &ResetRateLimiter{
		path:      path,
		cooldown:  cooldown,
		hourlyCap: hourlyCap,
		now:       time.Now,
	}
}

// Check decides without recording. Callers perform the side effect only on
// Allowed and must call Record afterwards. A missing or unreadable ledger
// fails open.
func (l *ResetRateLimiter) Check(ctx context.Context, email string) RateLimitDecision {
	l.mu.Lock()
	defer l.mu.Unlock()

	ledger, err := l.readLedger()
	if err != nil {
		slog.WarnContext(ctx, "rate limit ledger unreadable, allowing request", "path", l.path, "error", err)
		observability.RecordRateLimitDecision(ctx, "password_reset", "fail_open")
		return RateLimitDecision{Allowed: true}
	}

	now := l.now().UTC()
	attempts := ledger[normalizeKey(email)]
	var recent []time.Time
	for _, a := range attempts {
		if now.Sub(a) < time.Hour {
			recent = append(recent, a)
		}
	}

	if len(recent) >= l.hourlyCap {
		oldest := recent[0]
		for _, a := range recent {
			if a.Before(oldest) {
				oldest = a
			}
		}
		wait := time.Hour - now.Sub(oldest)
		observability.RecordRateLimitDecision(ctx, "password_reset", "deny")
		return RateLimitDecision{
			Allowed:    false,
			RetryAfter: wait,
			Message:    fmt.Sprintf("Too many password reset attempts. Please try again in %d minutes.", int(wait.Minutes())),
		}
	}

	if len(recent) > 0 {
		last := recent[0]
		for _, a := range recent {
			if a.After(last) {
				last = a
			}
		}
		if now.Sub(last) < l.cooldown {
			wait := l.cooldown - now.Sub(last)
			observability.RecordRateLimitDecision(ctx, "password_reset", "deny")
			return RateLimitDecision{
				Allowed:    false,
				RetryAfter: wait,
				Message:    fmt.Sprintf("Please wait %.0f seconds before requesting another password reset.", wait.Seconds()),
			}
		}
	}

	observability.RecordRateLimitDecision(ctx, "password_reset", "allow")
	return RateLimitDecision{Allowed: true}
}

// Record appends the attempt and prunes entries older than the retention
// window. Persistence failures are swallowed; the ledger is best-effort.
func (l *ResetRateLimiter) Record(ctx context.Context, email string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ledger, err := l.readLedger()
	if err != nil {
		ledger = map[string][]time.Time{}
	}

	now := l.now().UTC()
	key := normalizeKey(email)
	attempts := append(ledger[key], now)
	pruned := attempts[:0]
	for _, a := range attempts {
		if now.Sub(a) < ledgerRetention {
			pruned = append(pruned, a)
		}
	}
	ledger[key] = pruned

	if err := l.writeLedger(ledger); err != nil {
		slog.WarnContext(ctx, "rate limit ledger write failed", "path", l.path, "error", err)
	}
}

func (l *ResetRateLimiter) readLedger() (map[string][]time.Time, error) {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return map[string][]time.Time{}, nil
	}
	if err != nil {
		return nil, err
	}
	ledger := map[string][]time.Time{}
	if err := json.Unmarshal(data, &ledger); err != nil {
		// Malformed content degrades to an empty ledger rather than
		// blocking all reset traffic.
		return map[string][]time.Time{}, nil
	}
	return ledger, nil
}

func (l *ResetRateLimiter) writeLedger(ledger map[string][]time.Time) error {
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(l.path, data, 0o600)
}

func normalizeKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
