package repository

import (
	"context"

	"bookvault/internal/domain"
	"bookvault/internal/observability"

	"gorm.io/gorm"
)

type ContactRepository interface {
	Create(message *domain.ContactMessage) error
	List() ([]domain.ContactMessage, error)
}

type GormContactRepository struct{ db *gorm.DB }

func NewContactRepository(db *gorm.DB) ContactRepository { return &GormContactRepository{db: db} }

func (r *GormContactRepository) Create(message *domain.ContactMessage) error {
	err := r.db.Create(message).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "contact_message", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "contact_message", "create", "success")
	return nil
}

func (r *GormContactRepository) List() ([]domain.ContactMessage, error) {
	var messages []domain.ContactMessage
	err := r.db.Order("created_at DESC").Find(&messages).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "contact_message", "list", "error")
		return messages, err
	}
	observability.RecordRepositoryOperation(context.Background(), "contact_message", "list", "success")
	return messages, nil
}
