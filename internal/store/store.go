package store

import (
	"context"
	"errors"
	"time"

	"legal-fee-tracker-go/internal/models"
)

// Sentinel errors shared across all session store implementations.
var (
	ErrNoSession       = errors.New("no persisted session")
	ErrSessionMismatch = errors.New("session belongs to another principal")
)

// SessionStore persists the current session so a restarted process can
// resume it. At most one session is stored at a time.
type SessionStore interface {
	// LoadSession returns ErrNoSession when nothing has been saved.
	LoadSession(ctx context.Context) (*models.SessionRecord, error)
	// SaveSession replaces any previously stored session.
	SaveSession(ctx context.Context, rec models.SessionRecord) error
	// UpdateRole records the role resolved for principal.
	UpdateRole(ctx context.Context, principal string, role models.Role) error
	// TouchSession moves the last-activity time forward.
	TouchSession(ctx context.Context, principal string, at time.Time) error
	// ClearSession removes the stored session. Clearing an empty store is not an error.
	ClearSession(ctx context.Context) error

	Close()
}
