package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"legal-fee-tracker-go/internal/identity"
	"legal-fee-tracker-go/internal/models"
	"legal-fee-tracker-go/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCaller string

func (f fakeCaller) Principal() string { return string(f) }

func (f fakeCaller) PublicKey() []byte { return []byte(f) }

func (f fakeCaller) Sign(msg []byte) ([]byte, error) { return msg, nil }

type fakeProvider struct {
	mu            sync.Mutex
	principal     string
	authenticated bool
	loginErr      error
	loginGate     chan struct{}
	logouts       int
	lastOpts      identity.LoginOptions
}

func (p *fakeProvider) Create(context.Context) error { return nil }

func (p *fakeProvider) IsAuthenticated(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.authenticated, nil
}

func (p *fakeProvider) Login(ctx context.Context, opts identity.LoginOptions) error {
	if p.loginGate != nil {
		select {
		case <-p.loginGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastOpts = opts
	if p.loginErr != nil {
		return p.loginErr
	}
	p.authenticated = true
	return nil
}

func (p *fakeProvider) Logout(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.authenticated = false
	p.logouts++
	return nil
}

func (p *fakeProvider) GetIdentity() (models.Caller, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.authenticated {
		return nil, identity.ErrNotAuthenticated
	}
	return fakeCaller(p.principal), nil
}

type memStore struct {
	mu      sync.Mutex
	rec     *models.SessionRecord
	roleErr error
}

func (m *memStore) LoadSession(context.Context) (*models.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return nil, store.ErrNoSession
	}
	rec := *m.rec
	return &rec, nil
}

func (m *memStore) SaveSession(_ context.Context, rec models.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = &rec
	return nil
}

func (m *memStore) UpdateRole(_ context.Context, principal string, role models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.roleErr != nil {
		return m.roleErr
	}
	if m.rec == nil {
		return store.ErrNoSession
	}
	if m.rec.Principal != principal {
		return store.ErrSessionMismatch
	}
	m.rec.Role = role
	return nil
}

func (m *memStore) TouchSession(_ context.Context, principal string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return store.ErrNoSession
	}
	if at.After(m.rec.LastActiveAt) {
		m.rec.LastActiveAt = at
	}
	return nil
}

func (m *memStore) ClearSession(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = nil
	return nil
}

func (m *memStore) Close() {}

var testOptions = Options{
	IdentityProvider: identity.LocalProvider,
	MaxTimeToLive:    8 * time.Hour,
	IdleTimeout:      30 * time.Minute,
	InitTimeout:      time.Second,
}

func newTestContext(t *testing.T, p *fakeProvider, s *memStore) *Context {
	t.Helper()
	c, err := New(p, s, testOptions)
	require.NoError(t, err)
	require.ErrorIs(t, c.Initialize(context.Background()), ErrNotAuthenticated)
	return c
}

func TestNewValidatesArguments(t *testing.T) {
	_, err := New(nil, &memStore{}, testOptions)
	assert.Error(t, err)
	_, err = New(&fakeProvider{}, nil, testOptions)
	assert.Error(t, err)

	opts := testOptions
	opts.IdleTimeout = 0
	_, err = New(&fakeProvider{}, &memStore{}, opts)
	assert.Error(t, err)
}

func TestLoginThenLogout(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{principal: "p1"}
	s := &memStore{}
	c := newTestContext(t, p, s)

	require.NoError(t, c.Login(ctx))
	snap := c.Snapshot()
	assert.Equal(t, models.StateAuthenticated, snap.State)
	assert.Equal(t, "p1", snap.Principal)
	assert.Equal(t, identity.LocalProvider, p.lastOpts.IdentityProvider)
	assert.Equal(t, 8*time.Hour, p.lastOpts.MaxTimeToLive)

	_, ok := c.Role()
	assert.False(t, ok, "role is unresolved until SetRole")

	require.NoError(t, c.SetRole(ctx, models.RoleLawyer))
	role, ok := c.Role()
	assert.True(t, ok)
	assert.Equal(t, models.RoleLawyer, role)
	assert.Equal(t, models.RoleLawyer, s.rec.Role)

	require.NoError(t, c.Logout(ctx))
	snap = c.Snapshot()
	assert.Equal(t, models.StateUnauthenticated, snap.State)
	assert.Empty(t, snap.Principal)
	assert.Empty(t, snap.Role)
	assert.Nil(t, s.rec)
	_, err := c.Caller()
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	require.NoError(t, c.Logout(ctx))
	assert.Equal(t, 1, p.logouts, "second logout is a no-op")
}

func TestLoginFailureStaysUnauthenticated(t *testing.T) {
	p := &fakeProvider{principal: "p1", loginErr: errors.New("user closed the window")}
	c := newTestContext(t, p, &memStore{})

	err := c.Login(context.Background())
	require.ErrorIs(t, err, ErrLoginFailed)
	assert.Contains(t, err.Error(), "user closed the window")
	assert.Equal(t, models.StateUnauthenticated, c.Snapshot().State)
}

func TestConcurrentLoginIsRejected(t *testing.T) {
	p := &fakeProvider{principal: "p1", loginGate: make(chan struct{})}
	c := newTestContext(t, p, &memStore{})

	states := make(chan models.AuthState, 8)
	c.Subscribe(func(s models.Session) { states <- s.State })

	done := make(chan error, 1)
	go func() { done <- c.Login(context.Background()) }()

	require.Equal(t, models.StateAuthenticating, <-states)
	assert.ErrorIs(t, c.Login(context.Background()), ErrLoginInProgress)
	assert.ErrorIs(t, c.Logout(context.Background()), ErrLoginInProgress)

	close(p.loginGate)
	require.NoError(t, <-done)
	assert.Equal(t, models.StateAuthenticated, <-states)
}

func TestSetRoleRequiresAuthentication(t *testing.T) {
	c := newTestContext(t, &fakeProvider{principal: "p1"}, &memStore{})

	assert.ErrorIs(t, c.SetRole(context.Background(), models.RoleClient), ErrNotAuthenticated)

	require.NoError(t, c.Login(context.Background()))
	assert.ErrorIs(t, c.SetRole(context.Background(), "Judge"), ErrInvalidRole)
}

func TestSetRoleKeepsRoleUnresolvedWhenStoreFails(t *testing.T) {
	ctx := context.Background()
	s := &memStore{}
	c := newTestContext(t, &fakeProvider{principal: "p1"}, s)
	require.NoError(t, c.Login(ctx))

	notified := 0
	unsubscribe := c.Subscribe(func(models.Session) { notified++ })
	defer unsubscribe()

	s.mu.Lock()
	s.roleErr = errors.New("disk full")
	s.mu.Unlock()

	require.Error(t, c.SetRole(ctx, models.RoleLawyer))
	_, ok := c.Role()
	assert.False(t, ok)
	assert.Zero(t, notified)

	s.mu.Lock()
	s.roleErr = nil
	s.mu.Unlock()

	require.NoError(t, c.SetRole(ctx, models.RoleLawyer))
	role, ok := c.Role()
	assert.True(t, ok)
	assert.Equal(t, models.RoleLawyer, role)
	assert.Equal(t, 1, notified)
}

func TestInitializeRestoresSession(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	p := &fakeProvider{principal: "p1", authenticated: true}
	s := &memStore{rec: &models.SessionRecord{
		Id: "s1", Principal: "p1", Role: models.RoleClient,
		CreatedAt: now.Add(-time.Hour), LastActiveAt: now.Add(-10 * time.Minute),
	}}

	c, err := New(p, s, testOptions)
	require.NoError(t, err)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Initialize(ctx))
	role, ok := c.Role()
	assert.True(t, ok)
	assert.Equal(t, models.RoleClient, role)
	assert.Equal(t, now.Add(-time.Hour), c.Snapshot().CreatedAt)
	assert.Equal(t, now, s.rec.LastActiveAt)
}

func TestInitializeDropsIdleSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	p := &fakeProvider{principal: "p1", authenticated: true}
	s := &memStore{rec: &models.SessionRecord{Principal: "p1", LastActiveAt: now.Add(-31 * time.Minute)}}

	c, err := New(p, s, testOptions)
	require.NoError(t, err)
	c.now = func() time.Time { return now }

	assert.ErrorIs(t, c.Initialize(context.Background()), ErrSessionExpired)
	assert.Equal(t, models.StateUnauthenticated, c.Snapshot().State)
	assert.Nil(t, s.rec)
	assert.False(t, p.authenticated)
}

func TestInitializeStartsFreshRecordForOtherPrincipal(t *testing.T) {
	p := &fakeProvider{principal: "p2", authenticated: true}
	s := &memStore{rec: &models.SessionRecord{Principal: "p1", Role: models.RoleLawyer, LastActiveAt: time.Now()}}

	c, err := New(p, s, testOptions)
	require.NoError(t, err)
	require.NoError(t, c.Initialize(context.Background()))

	_, ok := c.Role()
	assert.False(t, ok)
	assert.Equal(t, "p2", s.rec.Principal)
}

func TestTouchExpiresIdleSession(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := newTestContext(t, &fakeProvider{principal: "p1"}, &memStore{})
	c.now = func() time.Time { return now }
	require.NoError(t, c.Login(ctx))

	now = now.Add(29 * time.Minute)
	callCtx, err := c.Require(ctx)
	require.NoError(t, err)
	assert.Equal(t, "p1", models.CallerFromContext(callCtx).Principal())

	now = now.Add(31 * time.Minute)
	_, err = c.Require(ctx)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, models.StateUnauthenticated, c.Snapshot().State)
}

func TestUnsubscribe(t *testing.T) {
	c := newTestContext(t, &fakeProvider{principal: "p1"}, &memStore{})

	var calls int
	unsubscribe := c.Subscribe(func(models.Session) { calls++ })
	require.NoError(t, c.Login(context.Background()))
	assert.Equal(t, 2, calls)

	unsubscribe()
	require.NoError(t, c.Logout(context.Background()))
	assert.Equal(t, 2, calls)
}
