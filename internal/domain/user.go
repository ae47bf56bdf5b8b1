package domain

import "time"

type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	FullName      string    `gorm:"size:256;not null" json:"full_name"`
	Email         string    `gorm:"size:256;uniqueIndex;not null" json:"email"`
	PasswordHash  string    `gorm:"size:128;not null" json:"-"`
	EmailVerified bool      `gorm:"not null;default:false" json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
