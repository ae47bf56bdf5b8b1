package domain

import "time"

type ShortenedURL struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ShortCode   string     `gorm:"size:10;uniqueIndex;not null" json:"short_code"`
	OriginalURL string     `gorm:"size:2000;not null" json:"original_url"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	ExpiresAt   time.Time  `gorm:"index;not null" json:"expires_at"`
	Used        bool       `gorm:"not null;default:false" json:"used"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	Purpose     string     `gorm:"size:50" json:"purpose,omitempty"`
}

func (u *ShortenedURL) Expired(now time.Time) bool { return now.After(u.ExpiresAt) }

func (u *ShortenedURL) Valid(now time.Time) bool { return !u.Expired(now) && !u.Used }
