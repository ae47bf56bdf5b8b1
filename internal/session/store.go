// Package session holds the server-side state behind the session cookie.
// The cookie carries an opaque identifier only; everything else lives in a
// Store, so invalidating the record invalidates the session.
package session

import (
	"context"
	"errors"
	"time"

	"bookvault/internal/domain"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

type Store interface {
	Get(ctx context.Context, id string) (*domain.SessionRecord, error)
	Save(ctx context.Context, record *domain.SessionRecord) error
	Delete(ctx context.Context, id string) error
	// DeleteStale removes records idle since before the cutoff. Backends with
	// native TTLs may treat this as a no-op.
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

func NewSessionID() string { return uuid.NewString() }
