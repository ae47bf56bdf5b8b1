package repository

import (
	"context"
	"errors"

	"bookvault/internal/domain"
	"bookvault/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrTokenNotFound = errors.New("credential token not found")

type CredentialTokenRepository interface {
	Upsert(token *domain.CredentialToken) error
	FindByUserAndPurpose(userID uint, purpose string) (*domain.CredentialToken, error)
	DeleteByUserAndPurpose(userID uint, purpose string) error
}

type GormCredentialTokenRepository struct{ db *gorm.DB }

func NewCredentialTokenRepository(db *gorm.DB) CredentialTokenRepository {
	return &GormCredentialTokenRepository{db: db}
}

// Upsert overwrites any prior token for the same (user, purpose) pair; the
// overwrite is what invalidates a previously issued token.
func (r *GormCredentialTokenRepository) Upsert(token *domain.CredentialToken) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "purpose"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "expires_at", "updated_at"}),
	}).Create(token).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "credential_token", "upsert", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "credential_token", "upsert", "success")
	return nil
}

func (r *GormCredentialTokenRepository) FindByUserAndPurpose(userID uint, purpose string) (*domain.CredentialToken, error) {
	var t domain.CredentialToken
	err := r.db.Where("user_id = ? AND purpose = ?", userID, purpose).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "credential_token", "find", "not_found")
			return nil, ErrTokenNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "credential_token", "find", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "credential_token", "find", "success")
	return &t, nil
}

func (r *GormCredentialTokenRepository) DeleteByUserAndPurpose(userID uint, purpose string) error {
	err := r.db.Where("user_id = ? AND purpose = ?", userID, purpose).
		Delete(&domain.CredentialToken{}).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "credential_token", "delete", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "credential_token", "delete", "success")
	return nil
}
