package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bookvault/internal/domain"
	"bookvault/internal/repository"
)

func newTestShortener(t *testing.T) (*URLShortener, *time.Time) {
	t.Helper()
	db := newTestDB(t, &domain.ShortenedURL{})
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := &base
	s := NewURLShortener(repository.NewShortenedURLRepository(db), time.Hour)
	s.now = func() time.Time { return *now }
	return s, now
}

func TestURLShortenerRoundTrip(t *testing.T) {
	s, _ := newTestShortener(t)
	ctx := context.Background()

	record, err := s.Create(ctx, "https://example.com/reset?token=abc", "password_reset")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(record.ShortCode) != 8 {
		t.Fatalf("code length = %d, want 8", len(record.ShortCode))
	}

	target, err := s.Resolve(ctx, record.ShortCode)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if target != "https://example.com/reset?token=abc" {
		t.Fatalf("resolved %q", target)
	}
}

func TestURLShortenerSingleUse(t *testing.T) {
	s, _ := newTestShortener(t)
	ctx := context.Background()

	record, err := s.Create(ctx, "https://example.com/x", "password_reset")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Resolve(ctx, record.ShortCode); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Resolve(ctx, record.ShortCode); !errors.Is(err, ErrShortLinkGone) {
		t.Fatalf("second resolve: got %v, want ErrShortLinkGone", err)
	}
}

func TestURLShortenerExpiry(t *testing.T) {
	s, now := newTestShortener(t)
	ctx := context.Background()

	record, err := s.Create(ctx, "https://example.com/x", "password_reset")
	if err != nil {
		t.Fatal(err)
	}
	*now = now.Add(2 * time.Hour)

	if _, err := s.Resolve(ctx, record.ShortCode); !errors.Is(err, ErrShortLinkGone) {
		t.Fatalf("got %v, want ErrShortLinkGone", err)
	}
}

func TestURLShortenerUnknownCode(t *testing.T) {
	s, _ := newTestShortener(t)
	if _, err := s.Resolve(context.Background(), "nope1234"); !errors.Is(err, ErrShortLinkGone) {
		t.Fatalf("got %v, want ErrShortLinkGone", err)
	}
}

// collidingRepo reports the first N probed codes as taken, forcing re-rolls.
type collidingRepo struct {
	repository.ShortenedURLRepository
	collisions int
	probes     int
}

func (r *collidingRepo) ActiveCodeExists(code string, now time.Time) (bool, error) {
	r.probes++
	if r.probes <= r.collisions {
		return true, nil
	}
	return r.ShortenedURLRepository.ActiveCodeExists(code, now)
}

func TestURLShortenerRerollsOnCollision(t *testing.T) {
	db := newTestDB(t, &domain.ShortenedURL{})
	repo := &collidingRepo{
		ShortenedURLRepository: repository.NewShortenedURLRepository(db),
		collisions:             3,
	}
	s := NewURLShortener(repo, time.Hour)

	record, err := s.Create(context.Background(), "https://example.com/x", "password_reset")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if repo.probes != 4 {
		t.Fatalf("probes = %d, want 4 (3 collisions + 1 free)", repo.probes)
	}
	if len(record.ShortCode) != 8 {
		t.Fatalf("code %q", record.ShortCode)
	}
}

func TestURLShortenerCleanupExpired(t *testing.T) {
	s, now := newTestShortener(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, "https://example.com/old", "password_reset"); err != nil {
		t.Fatal(err)
	}
	*now = now.Add(2 * time.Hour)
	fresh, err := s.Create(ctx, "https://example.com/new", "password_reset")
	if err != nil {
		t.Fatal(err)
	}

	removed, err := s.CleanupExpired(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := s.Resolve(ctx, fresh.ShortCode); err != nil {
		t.Fatalf("fresh link should survive cleanup: %v", err)
	}
}
