package identity

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/binary"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"legal-fee-tracker-go/internal/models"

	"go.uber.org/zap"
)

const (
	keyFileName        = "identity.pem"
	delegationFileName = "delegation.json"
	pemBlockType       = "PRIVATE KEY"
)

// Delegation authorizes the local session key to act for UserPublicKey
// until Expiration.
type Delegation struct {
	UserPublicKey []byte    `json:"userPublicKey"`
	SessionKey    []byte    `json:"sessionKey"`
	Expiration    time.Time `json:"expiration"`
	Signature     []byte    `json:"signature,omitempty"`
	Provider      string    `json:"provider"`
}

type delegationRequest struct {
	SessionPublicKey []byte `json:"sessionPublicKey"`
	MaxTimeToLive    int64  `json:"maxTimeToLive"`
	Timestamp        int64  `json:"timestamp"`
	Signature        []byte `json:"signature"`
}

type delegationResponse struct {
	UserPublicKey []byte `json:"userPublicKey"`
	Expiration    int64  `json:"expiration"`
	Signature     []byte `json:"signature"`
}

var _ Provider = (*KeyFileProvider)(nil)

// KeyFileProvider keeps an Ed25519 session key and the delegation obtained
// for it in a directory on disk.
type KeyFileProvider struct {
	dir        string
	httpClient *http.Client
	now        func() time.Time

	mu         sync.Mutex
	key        ed25519.PrivateKey
	delegation *Delegation
}

func NewKeyFileProvider(dir string, httpClient *http.Client) *KeyFileProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &KeyFileProvider{dir: dir, httpClient: httpClient, now: time.Now}
}

func (p *KeyFileProvider) Create(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.key != nil {
		return nil
	}
	if p.dir == "" {
		return fmt.Errorf("identity directory cannot be empty")
	}
	if err := os.MkdirAll(p.dir, 0o700); err != nil {
		return fmt.Errorf("unable to create identity directory: %w", err)
	}

	key, err := loadKey(filepath.Join(p.dir, keyFileName))
	if errors.Is(err, fs.ErrNotExist) {
		key, err = generateKey(filepath.Join(p.dir, keyFileName))
	}
	if err != nil {
		return err
	}
	p.key = key
	return nil
}

func (p *KeyFileProvider) IsAuthenticated(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.key == nil {
		return false, ErrNoIdentity
	}
	if p.delegation == nil {
		d, err := p.readDelegation()
		if err != nil {
			return false, err
		}
		p.delegation = d
	}
	return p.validLocked(), nil
}

func (p *KeyFileProvider) Login(ctx context.Context, opts LoginOptions) error {
	p.mu.Lock()
	key := p.key
	p.mu.Unlock()
	if key == nil {
		return ErrNoIdentity
	}
	if opts.MaxTimeToLive <= 0 {
		return fmt.Errorf("max time to live must be positive, got %v", opts.MaxTimeToLive)
	}

	sessionKey, err := x509.MarshalPKIXPublicKey(key.Public())
	if err != nil {
		return fmt.Errorf("unable to encode public key: %w", err)
	}

	var d *Delegation
	if opts.IdentityProvider == LocalProvider {
		d = &Delegation{
			UserPublicKey: sessionKey,
			SessionKey:    sessionKey,
			Expiration:    p.now().Add(opts.MaxTimeToLive).UTC(),
			Provider:      LocalProvider,
		}
	} else {
		d, err = p.handshake(ctx, key, sessionKey, opts)
		if err != nil {
			return err
		}
	}

	if err := p.writeDelegation(d); err != nil {
		return err
	}

	p.mu.Lock()
	p.delegation = d
	p.mu.Unlock()

	zap.L().Info("Identity authenticated",
		zap.String("principal", SelfAuthenticating(d.UserPublicKey).String()),
		zap.String("provider", d.Provider),
		zap.Time("expiration", d.Expiration))
	return nil
}

func (p *KeyFileProvider) Logout(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.delegation = nil
	err := os.Remove(filepath.Join(p.dir, delegationFileName))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("unable to remove delegation: %w", err)
	}
	return nil
}

func (p *KeyFileProvider) GetIdentity() (models.Caller, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.key == nil {
		return nil, ErrNoIdentity
	}
	if !p.validLocked() {
		return nil, ErrNotAuthenticated
	}
	d := *p.delegation
	return &KeyIdentity{key: p.key, delegation: d, principal: SelfAuthenticating(d.UserPublicKey).String()}, nil
}

func (p *KeyFileProvider) validLocked() bool {
	if p.delegation == nil {
		return false
	}
	sessionKey, err := x509.MarshalPKIXPublicKey(p.key.Public())
	if err != nil || !bytes.Equal(sessionKey, p.delegation.SessionKey) {
		return false
	}
	return p.now().Before(p.delegation.Expiration)
}

func (p *KeyFileProvider) handshake(ctx context.Context, key ed25519.PrivateKey, sessionKey []byte, opts LoginOptions) (*Delegation, error) {
	endpoint, err := url.JoinPath(opts.IdentityProvider, "delegation")
	if err != nil {
		return nil, fmt.Errorf("invalid identity provider url: %w", err)
	}

	ts := p.now().UnixNano()
	body, err := json.Marshal(delegationRequest{
		SessionPublicKey: sessionKey,
		MaxTimeToLive:    int64(opts.MaxTimeToLive),
		Timestamp:        ts,
		Signature:        ed25519.Sign(key, handshakeMessage(sessionKey, ts)),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to marshal delegation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("unable to create delegation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	zap.L().Debug("Requesting delegation", zap.String("provider", opts.IdentityProvider))
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Warn("Failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrHandshake, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out delegationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: invalid response: %v", ErrHandshake, err)
	}
	if len(out.UserPublicKey) == 0 || len(out.Signature) == 0 {
		return nil, fmt.Errorf("%w: incomplete delegation", ErrHandshake)
	}

	now := p.now()
	expiration := time.Unix(0, out.Expiration)
	if limit := now.Add(opts.MaxTimeToLive); expiration.After(limit) {
		expiration = limit
	}
	if !expiration.After(now) {
		return nil, fmt.Errorf("%w: delegation already expired", ErrHandshake)
	}

	return &Delegation{
		UserPublicKey: out.UserPublicKey,
		SessionKey:    sessionKey,
		Expiration:    expiration.UTC(),
		Signature:     out.Signature,
		Provider:      opts.IdentityProvider,
	}, nil
}

func handshakeMessage(sessionKey []byte, ts int64) []byte {
	msg := make([]byte, len(sessionKey), len(sessionKey)+8)
	copy(msg, sessionKey)
	return binary.BigEndian.AppendUint64(msg, uint64(ts))
}

func (p *KeyFileProvider) readDelegation() (*Delegation, error) {
	data, err := os.ReadFile(filepath.Join(p.dir, delegationFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read delegation: %w", err)
	}

	var d Delegation
	if err := json.Unmarshal(data, &d); err != nil {
		zap.L().Warn("Ignoring unreadable delegation file", zap.Error(err))
		return nil, nil
	}
	return &d, nil
}

func (p *KeyFileProvider) writeDelegation(d *Delegation) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("unable to marshal delegation: %w", err)
	}
	if err := os.WriteFile(filepath.Join(p.dir, delegationFileName), data, 0o600); err != nil {
		return fmt.Errorf("unable to write delegation: %w", err)
	}
	return nil
}

func loadKey(path string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemBlockType {
		return nil, fmt.Errorf("no %s block in %s", pemBlockType, path)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("unable to parse identity key: %w", err)
	}
	key, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("identity key in %s is %T, want ed25519", path, parsed)
	}
	return key, nil
}

func generateKey(path string) (ed25519.PrivateKey, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("unable to generate identity key: %w", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("unable to encode identity key: %w", err)
	}
	data := pem.EncodeToMemory(&pem.Block{Type: pemBlockType, Bytes: der})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("unable to write identity key: %w", err)
	}

	zap.L().Info("Generated new identity key", zap.String("file", path))
	return key, nil
}

// KeyIdentity is an authenticated identity backed by a local session key.
type KeyIdentity struct {
	key        ed25519.PrivateKey
	delegation Delegation
	principal  string
}

var _ models.Caller = (*KeyIdentity)(nil)

func (k *KeyIdentity) Principal() string { return k.principal }

func (k *KeyIdentity) PublicKey() []byte { return k.delegation.UserPublicKey }

func (k *KeyIdentity) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(k.key, message), nil
}

// Delegation returns the JSON-encoded delegation for remote logins, or nil
// when the session key is the user key.
func (k *KeyIdentity) Delegation() []byte {
	if len(k.delegation.Signature) == 0 {
		return nil
	}
	data, err := json.Marshal(k.delegation)
	if err != nil {
		return nil
	}
	return data
}

func (k *KeyIdentity) Expiration() time.Time { return k.delegation.Expiration }
