package repository

import (
	"context"

	"bookvault/internal/domain"
	"bookvault/internal/observability"

	"gorm.io/gorm"
)

type AuditRepository interface {
	Append(entry *domain.AuditTrail) error
	List(limit, offset int) ([]domain.AuditTrail, error)
}

type GormAuditRepository struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) AuditRepository { return &GormAuditRepository{db: db} }

func (r *GormAuditRepository) Append(entry *domain.AuditTrail) error {
	err := r.db.Create(entry).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "audit_trail", "append", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "audit_trail", "append", "success")
	return nil
}

func (r *GormAuditRepository) List(limit, offset int) ([]domain.AuditTrail, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	var entries []domain.AuditTrail
	err := r.db.Order("timestamp DESC, id DESC").Limit(limit).Offset(offset).Find(&entries).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "audit_trail", "list", "error")
		return entries, err
	}
	observability.RecordRepositoryOperation(context.Background(), "audit_trail", "list", "success")
	return entries, nil
}
