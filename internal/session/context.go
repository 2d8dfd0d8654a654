/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"legal-fee-tracker-go/internal/identity"
	"legal-fee-tracker-go/internal/models"
	"legal-fee-tracker-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotAuthenticated = errors.New("not signed in")
	ErrLoginInProgress  = errors.New("login already in progress")
	ErrLoginFailed      = errors.New("login failed")
	ErrSessionExpired   = errors.New("session expired")
	ErrInvalidRole      = errors.New("invalid role")
)

// Options configures a session Context.
type Options struct {
	IdentityProvider string
	MaxTimeToLive    time.Duration
	IdleTimeout      time.Duration
	InitTimeout      time.Duration
}

// Context holds who is currently using the application. It is created once
// per process, initialized, passed to every consumer, and closed on exit.
type Context struct {
	provider identity.Provider
	store    store.SessionStore
	opts     Options
	now      func() time.Time

	mu           sync.Mutex
	state        models.AuthState
	caller       models.Caller
	role         models.Role
	createdAt    time.Time
	lastActiveAt time.Time
	observers    map[int]func(models.Session)
	nextObserver int
}

func New(provider identity.Provider, sessions store.SessionStore, opts Options) (*Context, error) {
	if provider == nil {
		return nil, fmt.Errorf("identity provider cannot be nil")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store cannot be nil")
	}
	if opts.IdleTimeout <= 0 {
		return nil, fmt.Errorf("idle timeout must be positive, got %v", opts.IdleTimeout)
	}
	if opts.InitTimeout <= 0 {
		return nil, fmt.Errorf("init timeout must be positive, got %v", opts.InitTimeout)
	}
	if opts.MaxTimeToLive <= 0 {
		return nil, fmt.Errorf("max time to live must be positive, got %v", opts.MaxTimeToLive)
	}

	return &Context{
		provider:  provider,
		store:     sessions,
		opts:      opts,
		now:       time.Now,
		observers: make(map[int]func(models.Session)),
	}, nil
}

// Initialize restores a previously authenticated identity. It always leaves
// the context either Authenticated or Unauthenticated and returns within
// InitTimeout.
func (c *Context) Initialize(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.InitTimeout)
	defer cancel()

	err := c.restore(ctx)
	if err != nil {
		c.reset()
		zap.L().Info("No session restored", zap.Error(err))
	}
	c.notify()
	return err
}

func (c *Context) restore(ctx context.Context) error {
	if err := c.provider.Create(ctx); err != nil {
		return fmt.Errorf("unable to create identity: %w", err)
	}
	ok, err := c.provider.IsAuthenticated(ctx)
	if err != nil {
		return fmt.Errorf("unable to check identity: %w", err)
	}
	if !ok {
		if err := c.store.ClearSession(ctx); err != nil {
			zap.L().Warn("Failed to clear stale session", zap.Error(err))
		}
		return ErrNotAuthenticated
	}

	caller, err := c.provider.GetIdentity()
	if err != nil {
		return fmt.Errorf("unable to get identity: %w", err)
	}

	now := c.now()
	rec, err := c.store.LoadSession(ctx)
	switch {
	case errors.Is(err, store.ErrNoSession):
		rec = nil
	case err != nil:
		return fmt.Errorf("unable to load session: %w", err)
	}

	if rec != nil && rec.Principal == caller.Principal() && now.Sub(rec.LastActiveAt) > c.opts.IdleTimeout {
		zap.L().Info("Persisted session is idle-expired",
			zap.String("principal", rec.Principal),
			zap.Time("last_active_at", rec.LastActiveAt))
		if err := c.discard(ctx); err != nil {
			zap.L().Warn("Failed to discard expired session", zap.Error(err))
		}
		return ErrSessionExpired
	}

	if rec == nil || rec.Principal != caller.Principal() {
		rec = &models.SessionRecord{
			Id:           uuid.New().String(),
			Principal:    caller.Principal(),
			CreatedAt:    now,
			LastActiveAt: now,
		}
		if err := c.store.SaveSession(ctx, *rec); err != nil {
			return fmt.Errorf("unable to save session: %w", err)
		}
	} else if err := c.store.TouchSession(ctx, rec.Principal, now); err != nil {
		return fmt.Errorf("unable to touch session: %w", err)
	}

	c.mu.Lock()
	c.state = models.StateAuthenticated
	c.caller = caller
	c.role = ""
	if rec.Role.IsValid() {
		c.role = rec.Role
	}
	c.createdAt = rec.CreatedAt
	c.lastActiveAt = now
	c.mu.Unlock()

	zap.L().Info("Session restored",
		zap.String("principal", caller.Principal()),
		zap.String("role", rec.Role.String()))
	return nil
}

// Login runs the identity-provider handshake. The context is Authenticating
// until the handshake returns; on failure it goes back to Unauthenticated.
// Logging in while already authenticated is a no-op.
func (c *Context) Login(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case models.StateAuthenticating:
		c.mu.Unlock()
		return ErrLoginInProgress
	case models.StateAuthenticated:
		c.mu.Unlock()
		return nil
	}
	c.state = models.StateAuthenticating
	c.mu.Unlock()
	c.notify()

	caller, err := c.login(ctx)
	if err != nil {
		c.reset()
		c.notify()
		zap.L().Warn("Login failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	now := c.now()
	rec := models.SessionRecord{
		Id:           uuid.New().String(),
		Principal:    caller.Principal(),
		CreatedAt:    now,
		LastActiveAt: now,
	}
	if err := c.store.SaveSession(ctx, rec); err != nil {
		zap.L().Warn("Failed to persist session", zap.String("principal", rec.Principal), zap.Error(err))
	}

	c.mu.Lock()
	c.state = models.StateAuthenticated
	c.caller = caller
	c.role = ""
	c.createdAt = now
	c.lastActiveAt = now
	c.mu.Unlock()
	c.notify()

	zap.L().Info("Logged in", zap.String("principal", rec.Principal))
	return nil
}

func (c *Context) login(ctx context.Context) (models.Caller, error) {
	if err := c.provider.Create(ctx); err != nil {
		return nil, err
	}
	err := c.provider.Login(ctx, identity.LoginOptions{
		IdentityProvider: c.opts.IdentityProvider,
		MaxTimeToLive:    c.opts.MaxTimeToLive,
	})
	if err != nil {
		return nil, err
	}
	return c.provider.GetIdentity()
}

// Logout clears the identity, the role and the persisted session. Logging
// out while unauthenticated does nothing.
func (c *Context) Logout(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case models.StateUnauthenticated:
		c.mu.Unlock()
		return nil
	case models.StateAuthenticating:
		c.mu.Unlock()
		return ErrLoginInProgress
	}
	principal := c.caller.Principal()
	c.mu.Unlock()

	err := c.discard(ctx)
	c.reset()
	c.notify()

	zap.L().Info("Logged out", zap.String("principal", principal))
	return err
}

// discard removes the provider delegation and the persisted session.
func (c *Context) discard(ctx context.Context) error {
	var errs []error
	if err := c.provider.Logout(ctx); err != nil {
		errs = append(errs, fmt.Errorf("unable to log out of identity provider: %w", err))
	}
	if err := c.store.ClearSession(ctx); err != nil {
		errs = append(errs, fmt.Errorf("unable to clear session: %w", err))
	}
	return errors.Join(errs...)
}

// SetRole records the resolved role and persists it for restoration.
func (c *Context) SetRole(ctx context.Context, role models.Role) error {
	if !role.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	c.mu.Lock()
	if c.state != models.StateAuthenticated {
		c.mu.Unlock()
		return ErrNotAuthenticated
	}
	principal := c.caller.Principal()
	c.mu.Unlock()

	// The role is only resolved in memory once it is stored.
	if err := c.store.UpdateRole(ctx, principal, role); err != nil {
		return fmt.Errorf("unable to persist role: %w", err)
	}

	c.mu.Lock()
	if c.state != models.StateAuthenticated || c.caller.Principal() != principal {
		c.mu.Unlock()
		return ErrNotAuthenticated
	}
	c.role = role
	c.mu.Unlock()
	c.notify()
	return nil
}

// Role reports the resolved role. ok is false while unauthenticated or
// while the role has not been resolved.
func (c *Context) Role() (models.Role, bool) {
	return c.Snapshot().ResolvedRole()
}

// Caller returns the authenticated identity.
func (c *Context) Caller() (models.Caller, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != models.StateAuthenticated {
		return nil, ErrNotAuthenticated
	}
	return c.caller, nil
}

// Touch records activity. A session idle longer than IdleTimeout is logged
// out and ErrSessionExpired is returned.
func (c *Context) Touch(ctx context.Context) error {
	now := c.now()

	c.mu.Lock()
	if c.state != models.StateAuthenticated {
		c.mu.Unlock()
		return ErrNotAuthenticated
	}
	idle := now.Sub(c.lastActiveAt)
	principal := c.caller.Principal()
	if idle <= c.opts.IdleTimeout {
		c.lastActiveAt = now
	}
	c.mu.Unlock()

	if idle > c.opts.IdleTimeout {
		zap.L().Info("Session idle-expired", zap.String("principal", principal), zap.Duration("idle", idle))
		if err := c.Logout(ctx); err != nil {
			zap.L().Warn("Failed to clear expired session", zap.Error(err))
		}
		return ErrSessionExpired
	}

	if err := c.store.TouchSession(ctx, principal, now); err != nil {
		zap.L().Warn("Failed to persist session activity", zap.String("principal", principal), zap.Error(err))
	}
	return nil
}

// Require touches the session and returns a context carrying the caller,
// ready for backend calls.
func (c *Context) Require(ctx context.Context) (context.Context, error) {
	if err := c.Touch(ctx); err != nil {
		return nil, err
	}
	caller, err := c.Caller()
	if err != nil {
		return nil, err
	}
	return models.WithCaller(ctx, caller), nil
}

// Snapshot returns a copy of the current session for display.
func (c *Context) Snapshot() models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Context) snapshotLocked() models.Session {
	s := models.Session{State: c.state, Role: c.role}
	if c.caller != nil {
		s.Principal = c.caller.Principal()
		s.CreatedAt = c.createdAt
		s.LastActiveAt = c.lastActiveAt
	}
	return s
}

// Subscribe registers fn to receive a snapshot after every transition. The
// returned function removes it.
func (c *Context) Subscribe(fn func(models.Session)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObserver
	c.nextObserver++
	c.observers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

// Close releases the session store.
func (c *Context) Close() {
	c.mu.Lock()
	c.observers = make(map[int]func(models.Session))
	c.mu.Unlock()
	c.store.Close()
}

func (c *Context) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = models.StateUnauthenticated
	c.caller = nil
	c.role = ""
	c.createdAt = time.Time{}
	c.lastActiveAt = time.Time{}
}

func (c *Context) notify() {
	c.mu.Lock()
	snap := c.snapshotLocked()
	observers := make([]func(models.Session), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}
