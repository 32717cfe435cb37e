package directory

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("directory: user not found")

// User is the read-mostly profile record owned by the surrounding system.
// This subsystem only mutates the online flag and last-seen time.
type User struct {
	Id       int64  `json:"id"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
	PhotoURL string `json:"photoURL,omitempty"`
	IsOnline bool   `json:"isOnline"`
	LastSeen int64  `json:"lastSeen,omitempty"` // unix millis
}

// Directory looks up users from the external user directory.
type Directory interface {
	// Get returns the user with given id, or ErrNotFound.
	Get(ctx context.Context, id int64) (*User, error)

	// GetMany returns users by id. Unknown ids are silently absent from the result.
	GetMany(ctx context.Context, ids []int64) (map[int64]*User, error)

	// Search finds users whose name or username contains `query`,
	// case-insensitive, excluding `excludeUid`.
	Search(ctx context.Context, query string, excludeUid int64, limit int) ([]*User, error)

	// SetOnline flips the online flag and bumps last-seen to now.
	SetOnline(ctx context.Context, id int64, online bool) error
}
