package auth

import "net/http"

// Client resolves the caller's user id from a request. Identity is
// supplied by the surrounding system's session layer and trusted as given;
// this subsystem performs no credential verification itself.
type Client interface {
	// Auth returns the authenticated uid.
	Auth(r *http.Request) (int64, error)
}
