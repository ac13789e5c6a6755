package port

import "context"

// Identity describes the resolved caller of an operation. The core trusts
// the identity provider but enforces role-appropriate checks itself.
type Identity struct {
	UserID     string
	Role       string
	Department string
}

// IdentityProvider resolves a user ID to its identity.
type IdentityProvider interface {
	Resolve(ctx context.Context, userID string) (*Identity, error)
}

// NotificationDispatcher delivers a notification to a user over whatever
// channel the deployment wires up. Fire-and-forget: failures are logged by
// callers and never roll back the triggering transition.
type NotificationDispatcher interface {
	Notify(ctx context.Context, userID, title, message, priority string) error
}
