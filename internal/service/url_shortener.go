package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookvault/internal/domain"
	"bookvault/internal/repository"
	"bookvault/internal/security"
)

var ErrShortLinkGone = errors.New("short link expired or already used")

// maxCodeAttempts bounds the collision re-roll loop. With an 8-character
// code over 62 symbols collisions are vanishingly rare; hitting the bound
// indicates a broken random source, not a full table.
const maxCodeAttempts = 10

// URLShortener issues single-use short links in front of long signed URLs,
// mainly the password-reset link carried in email.
type URLShortener struct {
	repo repository.ShortenedURLRepository
	ttl  time.Duration
	now  func() time.Time
}

func NewURLShortener(repo repository.ShortenedURLRepository, ttl time.Duration) *URLShortener {
	return &URLShortener{repo: repo, ttl: ttl, now: time.Now}
}

// Create mints a code not currently live. Expired or used rows may keep a
// colliding code; only active rows block reuse.
func (s *URLShortener) Create(ctx context.Context, originalURL, purpose string) (*domain.ShortenedURL, error) {
	now := s.now().UTC()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := security.NewShortCode()
		if err != nil {
			return nil, err
		}
		taken, err := s.repo.ActiveCodeExists(code, now)
		if err != nil {
			return nil, err
		}
		if taken {
			continue
		}
		record := &domain.ShortenedURL{
			ShortCode:   code,
			OriginalURL: originalURL,
			CreatedAt:   now,
			ExpiresAt:   now.Add(s.ttl),
			Purpose:     purpose,
		}
		if err := s.repo.Create(record); err != nil {
			return nil, err
		}
		return record, nil
	}
	return nil, fmt.Errorf("could not allocate a short code after %d attempts", maxCodeAttempts)
}

// Resolve returns the target URL and consumes the link. A link resolves at
// most once; expired, used, or unknown codes all report ErrShortLinkGone.
func (s *URLShortener) Resolve(ctx context.Context, code string) (string, error) {
	record, err := s.repo.FindByCode(code)
	if err != nil {
		if errors.Is(err, repository.ErrShortURLNotFound) {
			return "", ErrShortLinkGone
		}
		return "", err
	}
	now := s.now().UTC()
	if !record.Valid(now) {
		return "", ErrShortLinkGone
	}
	consumed, err := s.repo.MarkUsed(code, now)
	if err != nil {
		return "", err
	}
	if !consumed {
		// Lost the race to a concurrent resolve.
		return "", ErrShortLinkGone
	}
	return record.OriginalURL, nil
}

// CleanupExpired deletes rows past their expiry and returns the count.
func (s *URLShortener) CleanupExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(s.now().UTC())
}
