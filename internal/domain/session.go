package domain

import "time"

// SessionRecord is the server-side state behind the session cookie. The
// cookie carries only the opaque ID. LastActivity is stored as RFC3339 text;
// a value that fails to parse disables the idle-timeout check for that
// request instead of rejecting the session.
type SessionRecord struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	UserID       string    `gorm:"size:64;index" json:"user_id"`
	LastActivity string    `gorm:"size:64" json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
