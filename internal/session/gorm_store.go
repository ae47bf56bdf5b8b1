package session

import (
	"context"
	"errors"
	"time"

	"bookvault/internal/domain"
	"bookvault/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps session records in the shared relational store, the
// default single-instance deployment.
type GormStore struct{ db *gorm.DB }

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

func (s *GormStore) Get(ctx context.Context, id string) (*domain.SessionRecord, error) {
	var rec domain.SessionRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "session", "get", "not_found")
			return nil, ErrSessionNotFound
		}
		observability.RecordRepositoryOperation(ctx, "session", "get", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "session", "get", "success")
	return &rec, nil
}

func (s *GormStore) Save(ctx context.Context, record *domain.SessionRecord) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "last_activity", "updated_at"}),
	}).Create(record).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "session", "save", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "session", "save", "success")
	return nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.SessionRecord{}).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "session", "delete", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "session", "delete", "success")
	return nil
}

func (s *GormStore) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("updated_at < ?", cutoff).Delete(&domain.SessionRecord{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "session", "delete_stale", "error")
		return res.RowsAffected, res.Error
	}
	observability.RecordRepositoryOperation(ctx, "session", "delete_stale", "success")
	return res.RowsAffected, nil
}
