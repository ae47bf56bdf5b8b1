package service

import (
	"crypto/subtle"
	"errors"
	"time"

	"bookvault/internal/domain"
	"bookvault/internal/observability"
	"bookvault/internal/repository"
	"bookvault/internal/security"
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// TokenIssuer manages single-use credential tokens. Each (user, purpose)
// pair holds at most one live token; issuing again replaces it.
type TokenIssuer struct {
	repo repository.CredentialTokenRepository
	ttls map[string]time.Duration
	now  func() time.Time
}

func NewTokenIssuer(repo repository.CredentialTokenRepository, verificationTTL, resetTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		repo: repo,
		ttls: map[string]time.Duration{
			domain.PurposeEmailVerification: verificationTTL,
			domain.PurposePasswordReset:     resetTTL,
		},
		now: time.Now,
	}
}

// Issue creates a fresh opaque token for the pair, overwriting any prior one.
func (s *TokenIssuer) Issue(userID uint, purpose string) (string, error) {
	token, err := security.NewOpaqueToken()
	if err != nil {
		return "", err
	}
	ttl, ok := s.ttls[purpose]
	if !ok {
		return "", errors.New("unknown token purpose")
	}
	record := &domain.CredentialToken{
		UserID:    userID,
		Purpose:   purpose,
		Token:     token,
		ExpiresAt: s.now().UTC().Add(ttl),
	}
	if err := s.repo.Upsert(record); err != nil {
		return "", err
	}
	return token, nil
}

// Validate checks the presented token against the stored one without
// consuming it. Expiry is reported distinctly from a mismatch so callers can
// phrase the failure.
func (s *TokenIssuer) Validate(userID uint, purpose, presented string) error {
	stored, err := s.repo.FindByUserAndPurpose(userID, purpose)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			observability.RecordTokenValidation(purpose, "missing")
			return ErrTokenInvalid
		}
		return err
	}
	if s.now().UTC().After(stored.ExpiresAt) {
		observability.RecordTokenValidation(purpose, "expired")
		return ErrTokenExpired
	}
	if subtle.ConstantTimeCompare([]byte(stored.Token), []byte(presented)) != 1 {
		observability.RecordTokenValidation(purpose, "mismatch")
		return ErrTokenInvalid
	}
	observability.RecordTokenValidation(purpose, "valid")
	return nil
}

// Lookup returns the stored token record, if any. Used where the flow needs
// to distinguish "no token" from "wrong token".
func (s *TokenIssuer) Lookup(userID uint, purpose string) (*domain.CredentialToken, error) {
	return s.repo.FindByUserAndPurpose(userID, purpose)
}

// Consume removes the pair's token so it cannot be replayed.
func (s *TokenIssuer) Consume(userID uint, purpose string) error {
	return s.repo.DeleteByUserAndPurpose(userID, purpose)
}
