package domain

import "time"

// AuditTrail entries are append-only; the core never updates or deletes them.
type AuditTrail struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      string    `gorm:"size:64;not null;index" json:"user_id"`
	Action      string    `gorm:"size:128;not null" json:"action"`
	OldValue    *string   `json:"old_value,omitempty"`
	NewValue    *string   `json:"new_value,omitempty"`
	Description *string   `json:"description,omitempty"`
	Timestamp   time.Time `gorm:"index;not null" json:"timestamp"`
}
