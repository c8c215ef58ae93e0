// Package entity contains the core business objects of the storefront checkout core.
package entity

import (
	"strconv"
)

const guestNamespace = "guest"

// Identity tells whether the current browser session is anonymous or tied to an
// authenticated WordPress user. It drives the storage-key namespace for carts and wishlists.
type Identity struct {
	UserID int64 `json:"user_id,omitempty"` // Zero for guests.
}

// Guest is the anonymous identity.
func Guest() Identity {
	return Identity{}
}

// AuthenticatedUser returns the identity of a logged-in user.
func AuthenticatedUser(id int64) Identity {
	return Identity{UserID: id}
}

// IsGuest reports whether the identity is anonymous.
func (i Identity) IsGuest() bool {
	return i.UserID <= 0
}

// Namespace returns "guest" or "user-{id}".
func (i Identity) Namespace() string {
	if i.IsGuest() {
		return guestNamespace
	}

	return "user-" + strconv.FormatInt(i.UserID, 10)
}

// String implements fmt.Stringer for logging.
func (i Identity) String() string {
	return i.Namespace()
}
