package domain

import "time"

type ContactMessage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FirstName   string    `gorm:"size:128;not null" json:"first_name"`
	LastName    string    `gorm:"size:128;not null" json:"last_name"`
	Email       string    `gorm:"size:256;not null" json:"email"`
	PhoneNumber string    `gorm:"size:32;not null" json:"phone_number"`
	Message     string    `gorm:"size:4000;not null" json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}
