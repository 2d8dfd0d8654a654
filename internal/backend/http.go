package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"legal-fee-tracker-go/internal/identity"
	"legal-fee-tracker-go/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	kindQuery = "query"
	kindCall  = "call"

	headerSender     = "X-Ic-Sender"
	headerPublicKey  = "X-Ic-Sender-Pubkey"
	headerTimestamp  = "X-Ic-Timestamp"
	headerSignature  = "X-Ic-Signature"
	headerDelegation = "X-Ic-Delegation"
	headerIdempotent = "Idempotency-Key"

	maxReplyBytes = 8 << 20
)

// delegated is implemented by identities acting under a delegation.
type delegated interface {
	Delegation() []byte
}

var _ Client = (*HTTPClient)(nil)

// HTTPClient calls backend methods as JSON over HTTP. Queries and updates
// are posted to {url}/api/v2/canister/{id}/{query|call}/{method}.
type HTTPClient struct {
	baseURL    string
	canisterId string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	now        func() time.Time
}

func NewHTTPClient(cfg models.BackendConfig, httpClient *http.Client) (*HTTPClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("backend url cannot be empty")
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if cfg.CanisterId == "" {
		return nil, fmt.Errorf("backend canister id cannot be empty")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("backend timeout must be positive, got %v", cfg.Timeout)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &HTTPClient{
		baseURL:    cfg.URL,
		canisterId: cfg.CanisterId,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		timeout:    cfg.Timeout,
		now:        time.Now,
	}, nil
}

func (c *HTTPClient) query(ctx context.Context, method string, out any, args ...any) error {
	return c.do(ctx, kindQuery, method, out, args)
}

func (c *HTTPClient) call(ctx context.Context, method string, out any, args ...any) error {
	return c.do(ctx, kindCall, method, out, args)
}

func (c *HTTPClient) do(ctx context.Context, kind, method string, out any, args []any) error {
	if args == nil {
		args = []any{}
	}
	body, err := json.Marshal(struct {
		Args []any `json:"args"`
	}{args})
	if err != nil {
		return fmt.Errorf("unable to marshal %s arguments: %w", method, err)
	}

	endpoint, err := url.JoinPath(c.baseURL, "api", "v2", "canister", c.canisterId, kind, method)
	if err != nil {
		return fmt.Errorf("unable to build %s url: %w", method, err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("unable to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if kind == kindCall {
		req.Header.Set(headerIdempotent, uuid.New().String())
	}
	if err := c.sign(req, kind, method, body); err != nil {
		return err
	}

	start := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		zap.L().Warn("Backend request failed", zap.String("method", method), zap.Error(err))
		return fmt.Errorf("%s: %w: %v", method, ErrUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Warn("Failed to close response body", zap.Error(err))
		}
	}()

	reply, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return fmt.Errorf("%s: %w: %v", method, ErrUnavailable, err)
	}

	zap.L().Debug("Backend request completed",
		zap.String("method", method),
		zap.String("kind", kind),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", c.now().Sub(start)))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %w: status %d: %s", method, ErrUnavailable, resp.StatusCode, bytes.TrimSpace(reply))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(reply, out); err != nil {
		return fmt.Errorf("%s: %w: %v", method, ErrMalformedReply, err)
	}
	return nil
}

// sign attaches the caller's principal and a signature over the request.
// Anonymous requests carry only the sender header.
func (c *HTTPClient) sign(req *http.Request, kind, method string, body []byte) error {
	caller := models.CallerFromContext(req.Context())
	if caller == nil {
		req.Header.Set(headerSender, identity.Anonymous.String())
		return nil
	}

	ts := strconv.FormatInt(c.now().UnixNano(), 10)
	sig, err := caller.Sign(signedPayload(kind, method, ts, body))
	if err != nil {
		return fmt.Errorf("unable to sign %s request: %w", method, err)
	}

	req.Header.Set(headerSender, caller.Principal())
	req.Header.Set(headerPublicKey, base64.StdEncoding.EncodeToString(caller.PublicKey()))
	req.Header.Set(headerTimestamp, ts)
	req.Header.Set(headerSignature, base64.StdEncoding.EncodeToString(sig))
	if d, ok := caller.(delegated); ok {
		if chain := d.Delegation(); chain != nil {
			req.Header.Set(headerDelegation, base64.StdEncoding.EncodeToString(chain))
		}
	}
	return nil
}

func signedPayload(kind, method, ts string, body []byte) []byte {
	var b bytes.Buffer
	b.WriteString(kind)
	b.WriteByte('\n')
	b.WriteString(method)
	b.WriteByte('\n')
	b.WriteString(ts)
	b.WriteByte('\n')
	b.Write(body)
	return b.Bytes()
}

// unwrap turns a result reply into its ok payload or a *RemoteError.
func unwrap(method string, r result, out any) error {
	if r.Err != nil {
		return &RemoteError{Method: method, Message: *r.Err}
	}
	if out == nil || len(r.Ok) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Ok, out); err != nil {
		return fmt.Errorf("%s: %w: %v", method, ErrMalformedReply, err)
	}
	return nil
}

func (c *HTTPClient) GetUserType(ctx context.Context) (models.UserType, error) {
	var reply json.RawMessage
	if err := c.query(ctx, "getUserType", &reply); err != nil {
		return "", err
	}
	return decodeUserType(reply)
}

// decodeUserType accepts an optional variant: null, [], [{"Lawyer":null}]
// or a bare {"Client":null}.
func decodeUserType(reply json.RawMessage) (models.UserType, error) {
	var v variant
	trimmed := bytes.TrimSpace(reply)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return "", fmt.Errorf("getUserType: %w: %v", ErrMalformedReply, err)
		}
	} else {
		var o opt[variant]
		if err := json.Unmarshal(trimmed, &o); err != nil {
			return "", fmt.Errorf("getUserType: %w: %v", ErrMalformedReply, err)
		}
		if o.Value == nil {
			return "", nil
		}
		v = *o.Value
	}

	userType := models.UserType(v.Tag)
	if !userType.IsValid() {
		return "", fmt.Errorf("getUserType: %w: unknown user type %q", ErrMalformedReply, v.Tag)
	}
	return userType, nil
}

func (c *HTTPClient) GetLawyerProfile(ctx context.Context, principal string) (*models.LawyerProfile, error) {
	var r result
	if err := c.query(ctx, "getLawyerProfile", &r, principal); err != nil {
		return nil, err
	}
	var w wireLawyerProfile
	if err := unwrap("getLawyerProfile", r, &w); err != nil {
		return nil, err
	}
	profile := w.model()
	return &profile, nil
}

func (c *HTTPClient) GetClientProfile(ctx context.Context, principal string) (*models.ClientProfile, error) {
	var r result
	if err := c.query(ctx, "getClientProfile", &r, principal); err != nil {
		return nil, err
	}
	var w wireClientProfile
	if err := unwrap("getClientProfile", r, &w); err != nil {
		return nil, err
	}
	profile := w.model()
	return &profile, nil
}

func (c *HTTPClient) RegisterLawyer(ctx context.Context, p models.CreateLawyerProfile) error {
	args := wireRegisterLawyer{
		Name:            p.Name,
		Email:           p.Email,
		WalletAddress:   p.WalletAddress,
		Bio:             p.Bio,
		Jurisdiction:    p.Jurisdiction,
		Specializations: p.Specializations,
		HourlyRate:      optFrom(p.HourlyRate),
	}
	var r result
	if err := c.call(ctx, "registerLawyer", &r, args); err != nil {
		return err
	}
	return unwrap("registerLawyer", r, nil)
}

func (c *HTTPClient) RegisterClient(ctx context.Context, p models.CreateClientProfile) error {
	args := wireRegisterClient(p)
	var r result
	if err := c.call(ctx, "registerClient", &r, args); err != nil {
		return err
	}
	return unwrap("registerClient", r, nil)
}

func (c *HTTPClient) GetAllLawyers(ctx context.Context) ([]models.LawyerProfile, error) {
	var reply []wireLawyerProfile
	if err := c.query(ctx, "getAllLawyers", &reply); err != nil {
		return nil, err
	}
	lawyers := make([]models.LawyerProfile, len(reply))
	for i, w := range reply {
		lawyers[i] = w.model()
	}
	return lawyers, nil
}

func (c *HTTPClient) GetMyEngagements(ctx context.Context) ([]models.Engagement, error) {
	var reply []wireEngagement
	if err := c.query(ctx, "getMyEngagements", &reply); err != nil {
		return nil, err
	}
	engagements := make([]models.Engagement, 0, len(reply))
	for _, w := range reply {
		e, err := w.model()
		if err != nil {
			return nil, fmt.Errorf("getMyEngagements: %w: %v", ErrMalformedReply, err)
		}
		engagements = append(engagements, e)
	}
	return engagements, nil
}

func (c *HTTPClient) GetEngagement(ctx context.Context, id string) (*models.Engagement, error) {
	var r result
	if err := c.query(ctx, "getEngagement", &r, id); err != nil {
		return nil, err
	}
	var w wireEngagement
	if err := unwrap("getEngagement", r, &w); err != nil {
		return nil, err
	}
	e, err := w.model()
	if err != nil {
		return nil, fmt.Errorf("getEngagement: %w: %v", ErrMalformedReply, err)
	}
	return &e, nil
}

func (c *HTTPClient) CreateEngagement(ctx context.Context, in models.CreateEngagement) (string, error) {
	fee, err := engagementTypeWire(in.EngagementType.EngagementType)
	if err != nil {
		return "", fmt.Errorf("createEngagement: %w", err)
	}
	args := wireCreateEngagement{
		Title:          in.Title,
		Description:    in.Description,
		Lawyer:         in.Lawyer,
		Client:         in.Client,
		EngagementType: fee,
		EscrowAmount:   in.EscrowAmount,
	}

	var r result
	if err := c.call(ctx, "createEngagement", &r, args); err != nil {
		return "", err
	}
	var id string
	if err := unwrap("createEngagement", r, &id); err != nil {
		return "", err
	}
	return id, nil
}

func (c *HTTPClient) AddTimeEntry(ctx context.Context, entry models.NewTimeEntry) error {
	var r result
	if err := c.call(ctx, "addTimeEntry", &r, entry.EngagementId, entry.Description, entry.Hours.InexactFloat64()); err != nil {
		return err
	}
	return unwrap("addTimeEntry", r, nil)
}

func (c *HTTPClient) ApproveTimeEntry(ctx context.Context, engagementId string, entryId uint64) error {
	var r result
	if err := c.call(ctx, "approveTimeEntry", &r, engagementId, entryId); err != nil {
		return err
	}
	return unwrap("approveTimeEntry", r, nil)
}

func (c *HTTPClient) RejectTimeEntry(ctx context.Context, engagementId string, entryId uint64) error {
	var r result
	if err := c.call(ctx, "rejectTimeEntry", &r, engagementId, entryId); err != nil {
		return err
	}
	return unwrap("rejectTimeEntry", r, nil)
}

func (c *HTTPClient) SendMessage(ctx context.Context, message models.NewMessage) error {
	var r result
	if err := c.call(ctx, "sendMessage", &r, message.EngagementId, message.Content); err != nil {
		return err
	}
	return unwrap("sendMessage", r, nil)
}

func (c *HTTPClient) GetTransactions(ctx context.Context, engagementId string) ([]models.Transaction, error) {
	var reply []wireTransaction
	if err := c.query(ctx, "getTransactions", &reply, engagementId); err != nil {
		return nil, err
	}
	txs := make([]models.Transaction, 0, len(reply))
	for _, w := range reply {
		tx, err := w.model()
		if err != nil {
			return nil, fmt.Errorf("getTransactions: %w: %v", ErrMalformedReply, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (c *HTTPClient) GetEscrowAccount(ctx context.Context, engagementId string) (*models.EscrowAccount, error) {
	var r result
	if err := c.query(ctx, "getEscrowAccount", &r, engagementId); err != nil {
		return nil, err
	}
	var w wireEscrowAccount
	if err := unwrap("getEscrowAccount", r, &w); err != nil {
		return nil, err
	}
	if w.EngagementId == "" {
		return nil, &RemoteError{Method: "getEscrowAccount", Message: "escrow account not found"}
	}
	account := w.model()
	return &account, nil
}
