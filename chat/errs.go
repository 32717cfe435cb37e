package chat

import "strings"

// ValidationError rejects a request with a client-visible reason and no
// state change. Not-found and not-participant outcomes reuse the store
// sentinels; duplicate-key conflicts never escape the store.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + strings.Join(e.Reasons, "; ")
}

func invalid(reasons ...string) error {
	return &ValidationError{Reasons: reasons}
}
