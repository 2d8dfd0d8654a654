package identity

import (
	"context"
	"errors"
	"time"

	"legal-fee-tracker-go/internal/models"
)

// LocalProvider selects a key-only login that skips the remote handshake.
const LocalProvider = "local"

var (
	ErrNoIdentity       = errors.New("identity not created")
	ErrNotAuthenticated = errors.New("identity is not authenticated")
	ErrHandshake        = errors.New("identity provider handshake failed")
)

// LoginOptions configures a single login.
type LoginOptions struct {
	IdentityProvider string
	MaxTimeToLive    time.Duration
}

// Provider is the auth client the session context drives.
type Provider interface {
	// Create prepares the provider, loading or generating the local key.
	Create(ctx context.Context) error
	IsAuthenticated(ctx context.Context) (bool, error)
	Login(ctx context.Context, opts LoginOptions) error
	Logout(ctx context.Context) error
	// GetIdentity returns the authenticated identity, or ErrNotAuthenticated.
	GetIdentity() (models.Caller, error)
}
