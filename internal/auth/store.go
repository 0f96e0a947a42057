package auth

import (
	"context"
	"time"
)

// IdentityStore persists identities and their claim sets. The service computes
// lockout decisions; the store only records them.
type IdentityStore interface {
	// Create inserts the identity with its claim set. Returns ErrEmailTaken
	// when the email is already registered.
	Create(ctx context.Context, id *Identity) error

	// FindByEmail loads an identity with its claims. Returns ErrNotFound for
	// unknown emails.
	FindByEmail(ctx context.Context, email string) (*Identity, error)

	// RecordLoginFailure stores the updated failure counter and, when the
	// threshold was reached, the lockout deadline.
	RecordLoginFailure(ctx context.Context, identityID string, failures int, lockoutUntil *time.Time) error

	// ResetLoginFailures clears the failure counter and any lockout deadline
	// after a successful login.
	ResetLoginFailures(ctx context.Context, identityID string) error
}
