package domain

import "time"

const (
	PurposeEmailVerification = "email_verification"
	PurposePasswordReset     = "password_reset"
)

// CredentialToken holds the single live token for a (user, purpose) pair.
// Issuing a new token overwrites the row, which implicitly invalidates the
// previous token.
type CredentialToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_credential_tokens_user_purpose" json:"user_id"`
	Purpose   string    `gorm:"size:32;not null;uniqueIndex:idx_credential_tokens_user_purpose" json:"purpose"`
	Token     string    `gorm:"size:128;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
