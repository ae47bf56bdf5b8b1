package repository

import (
	"errors"
	"testing"
	"time"

	"bookvault/internal/domain"
)

func newTokenRepoForTest(t *testing.T) CredentialTokenRepository {
	t.Helper()
	return NewCredentialTokenRepository(newTestDB(t, &domain.CredentialToken{}))
}

func TestCredentialTokenUpsertOverwritesPrior(t *testing.T) {
	repo := newTokenRepoForTest(t)

	first := &domain.CredentialToken{
		UserID:    1,
		Purpose:   domain.PurposeEmailVerification,
		Token:     "first-token",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	if err := repo.Upsert(first); err != nil {
		t.Fatalf("upsert first: %v", err)
	}

	second := &domain.CredentialToken{
		UserID:    1,
		Purpose:   domain.PurposeEmailVerification,
		Token:     "second-token",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	if err := repo.Upsert(second); err != nil {
		t.Fatalf("upsert second: %v", err)
	}

	stored, err := repo.FindByUserAndPurpose(1, domain.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.Token != "second-token" {
		t.Fatalf("expected overwrite, got %q", stored.Token)
	}
}

func TestCredentialTokenPurposesAreIndependent(t *testing.T) {
	repo := newTokenRepoForTest(t)

	verify := &domain.CredentialToken{
		UserID:    1,
		Purpose:   domain.PurposeEmailVerification,
		Token:     "verify-token",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	reset := &domain.CredentialToken{
		UserID:    1,
		Purpose:   domain.PurposePasswordReset,
		Token:     "reset-token",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := repo.Upsert(verify); err != nil {
		t.Fatalf("upsert verify: %v", err)
	}
	if err := repo.Upsert(reset); err != nil {
		t.Fatalf("upsert reset: %v", err)
	}

	got, err := repo.FindByUserAndPurpose(1, domain.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("find verify: %v", err)
	}
	if got.Token != "verify-token" {
		t.Fatalf("reset upsert clobbered verification token: %q", got.Token)
	}
}

func TestCredentialTokenDelete(t *testing.T) {
	repo := newTokenRepoForTest(t)

	tok := &domain.CredentialToken{
		UserID:    7,
		Purpose:   domain.PurposePasswordReset,
		Token:     "tok",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := repo.Upsert(tok); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.DeleteByUserAndPurpose(7, domain.PurposePasswordReset); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByUserAndPurpose(7, domain.PurposePasswordReset); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}
