package sessions

import (
	"context"
	"time"
)

// Repo stores sessions keyed by session ID.
// Get returns errors.ErrSessionNotFound for unknown IDs.
type Repo interface {
	Upsert(ctx context.Context, session Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error

	// DeleteExpired removes sessions whose ExpiresAt is before now
	DeleteExpired(ctx context.Context, now time.Time) error
}
