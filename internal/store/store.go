package store

import (
	"context"
	"time"

	"github.com/telecrm/helpdesk-sso/internal/domain"
)

// Store is the shared state behind the verification ledger and session
// resolver: pending verifications keyed by token, the verified email set, and
// sessions keyed by session id. Implementations must make ConsumePending
// atomic so that two concurrent verify calls for the same token cannot both
// succeed.
type Store interface {
	// CreatePending records a new pending verification under its token.
	CreatePending(ctx context.Context, rec domain.PendingVerification) error
	// GetPending returns the pending entry for token, or nil if absent.
	// Read-only; expiry is not enforced here.
	GetPending(ctx context.Context, token string) (*domain.PendingVerification, error)
	// ConsumePending atomically removes and returns the pending entry for
	// token. Returns nil if the token is unknown or already consumed.
	ConsumePending(ctx context.Context, token string) (*domain.PendingVerification, error)
	// ListPending returns a snapshot of all pending entries in insertion order.
	ListPending(ctx context.Context) ([]domain.PendingVerification, error)

	// AddVerified adds a normalized email to the verified set.
	AddVerified(ctx context.Context, email string) error
	// IsVerified reports verified-set membership for a normalized email.
	IsVerified(ctx context.Context, email string) (bool, error)
	// RemoveVerified removes an email from the verified set and reports
	// whether it was present.
	RemoveVerified(ctx context.Context, email string) (bool, error)
	// ListVerified returns a snapshot of all verified emails.
	ListVerified(ctx context.Context) ([]string, error)

	// PutSession stores a session record under its id until ExpiresAt.
	PutSession(ctx context.Context, s domain.Session) error
	// GetSession returns the session for id, or nil if absent or expired.
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	// DeleteSession removes a session record.
	DeleteSession(ctx context.Context, id string) error

	// IncrementCounter bumps a fixed-window counter and returns the count
	// within the current window. Used by the rate limit middleware.
	IncrementCounter(ctx context.Context, key string, window time.Duration) (int64, error)

	Close() error
}
