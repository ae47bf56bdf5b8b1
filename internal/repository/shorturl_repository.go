package repository

import (
	"context"
	"errors"
	"time"

	"bookvault/internal/domain"
	"bookvault/internal/observability"

	"gorm.io/gorm"
)

var ErrShortURLNotFound = errors.New("shortened url not found")

type ShortenedURLRepository interface {
	Create(url *domain.ShortenedURL) error
	FindByCode(code string) (*domain.ShortenedURL, error)
	ActiveCodeExists(code string, now time.Time) (bool, error)
	MarkUsed(code string, now time.Time) (bool, error)
	DeleteExpired(now time.Time) (int64, error)
}

type GormShortenedURLRepository struct{ db *gorm.DB }

func NewShortenedURLRepository(db *gorm.DB) ShortenedURLRepository {
	return &GormShortenedURLRepository{db: db}
}

func (r *GormShortenedURLRepository) Create(url *domain.ShortenedURL) error {
	err := r.db.Create(url).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "shortened_url", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "shortened_url", "create", "success")
	return nil
}

func (r *GormShortenedURLRepository) FindByCode(code string) (*domain.ShortenedURL, error) {
	var u domain.ShortenedURL
	err := r.db.Where("short_code = ?", code).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "shortened_url", "find_by_code", "not_found")
			return nil, ErrShortURLNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "shortened_url", "find_by_code", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "shortened_url", "find_by_code", "success")
	return &u, nil
}

// ActiveCodeExists reports whether an unexpired record already holds the
// code, used to re-roll on collision before persisting.
func (r *GormShortenedURLRepository) ActiveCodeExists(code string, now time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&domain.ShortenedURL{}).
		Where("short_code = ? AND expires_at > ?", code, now).
		Count(&count).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "shortened_url", "active_code_exists", "error")
		return false, err
	}
	observability.RecordRepositoryOperation(context.Background(), "shortened_url", "active_code_exists", "success")
	return count > 0, nil
}

// MarkUsed flips the used flag exactly once; a second call affects no rows
// and reports false.
func (r *GormShortenedURLRepository) MarkUsed(code string, now time.Time) (bool, error) {
	res := r.db.Model(&domain.ShortenedURL{}).
		Where("short_code = ? AND used = ?", code, false).
		Updates(map[string]any{"used": true, "used_at": now})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "shortened_url", "mark_used", "error")
		return false, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "shortened_url", "mark_used", "success")
	return res.RowsAffected > 0, nil
}

func (r *GormShortenedURLRepository) DeleteExpired(now time.Time) (int64, error) {
	res := r.db.Where("expires_at < ?", now).Delete(&domain.ShortenedURL{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "shortened_url", "delete_expired", "error")
		return res.RowsAffected, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "shortened_url", "delete_expired", "success")
	return res.RowsAffected, nil
}
