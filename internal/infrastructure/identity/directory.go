// Package identity resolves user IDs against a static directory loaded from
// configuration. Authentication and user management live outside this
// system; the directory only answers who a user is and what role they hold.
package identity

import (
	"context"
	"fmt"

	"github.com/traineedesk/internship-workflow/internal/application/port"
	"github.com/traineedesk/internship-workflow/internal/config"
)

// Directory implements port.IdentityProvider over config-defined users.
type Directory struct {
	users map[string]*port.Identity
}

// NewDirectory creates a directory from the configured user list.
func NewDirectory(users []config.UserConfig) *Directory {
	m := make(map[string]*port.Identity, len(users))
	for _, u := range users {
		m[u.ID] = &port.Identity{
			UserID:     u.ID,
			Role:       u.Role,
			Department: u.Department,
		}
	}
	return &Directory{users: m}
}

// Resolve returns the identity for the user ID.
func (d *Directory) Resolve(ctx context.Context, userID string) (*port.Identity, error) {
	identity, ok := d.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s not found in directory", userID)
	}
	return identity, nil
}

// Verify interface compliance
var _ port.IdentityProvider = (*Directory)(nil)
