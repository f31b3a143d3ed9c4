package identity

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated indicates the session could not be verified; callers
// fall back to local preference storage.
var ErrNotAuthenticated = errors.New("session not authenticated")

// RemoteError indicates the identity service answered with a non-success
// HTTP status.
type RemoteError struct {
	Status int
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("identity service returned status %v", e.Status)
}
