package backend

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnavailable marks transport failures and non-success HTTP statuses.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrNotFound matches remote errors reporting a missing entity.
	ErrNotFound = errors.New("not found")
	// ErrMalformedReply marks replies that do not match the expected shape.
	ErrMalformedReply = errors.New("malformed backend reply")
)

// RemoteError is the string error returned by a backend call.
type RemoteError struct {
	Method  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Method, e.Message)
}

// notFoundMessages are the backend's replies for a missing entity, lower case.
var notFoundMessages = map[string]bool{
	"lawyer not found":         true,
	"client not found":         true,
	"profile not found":        true,
	"engagement not found":     true,
	"time entry not found":     true,
	"escrow account not found": true,
}

// Is matches ErrNotFound only for the exact missing-entity replies.
func (e *RemoteError) Is(target error) bool {
	return target == ErrNotFound && notFoundMessages[strings.ToLower(strings.TrimSpace(e.Message))]
}
