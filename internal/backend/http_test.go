package backend

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"legal-fee-tracker-go/internal/identity"
	"legal-fee-tracker-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCanister = "uxrrr-q7777-77774-qaaaq-cai"

type testCaller struct {
	key ed25519.PrivateKey
}

func newTestCaller(t *testing.T) *testCaller {
	t.Helper()
	_, key, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return &testCaller{key: key}
}

func (c *testCaller) Principal() string { return "p1" }

func (c *testCaller) PublicKey() []byte { return c.key.Public().(ed25519.PublicKey) }

func (c *testCaller) Sign(message []byte) ([]byte, error) { return ed25519.Sign(c.key, message), nil }

type recordedCall struct {
	kind   string
	method string
	args   []json.RawMessage
	header http.Header
	body   []byte
}

// fakeCanister answers backend methods with canned replies.
type fakeCanister struct {
	mu      sync.Mutex
	replies map[string]string
	calls   []recordedCall
}

func (f *fakeCanister) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	prefix := "/api/v2/canister/" + testCanister + "/"
	if r.Method != http.MethodPost || !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}

	body, _ := io.ReadAll(r.Body)
	var req struct {
		Args []json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{kind: parts[0], method: parts[1], args: req.Args, header: r.Header.Clone(), body: body})
	reply, ok := f.replies[parts[1]]
	f.mu.Unlock()

	if !ok {
		http.Error(w, "canister trapped", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, reply)
}

func (f *fakeCanister) last() recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func newTestClient(t *testing.T, replies map[string]string) (*HTTPClient, *fakeCanister) {
	t.Helper()
	canister := &fakeCanister{replies: replies}
	server := httptest.NewServer(canister)
	t.Cleanup(server.Close)

	c, err := NewHTTPClient(models.BackendConfig{
		URL:        server.URL,
		CanisterId: testCanister,
		Timeout:    5 * time.Second,
	}, server.Client())
	require.NoError(t, err)
	return c, canister
}

const engagementJSON = `{
	"id": "e1",
	"title": "Contract Review",
	"description": "Review of SaaS agreement",
	"lawyer": "p1",
	"client": "p2",
	"engagement_type": {"Milestone": {"milestones": [
		{"id": 1, "description": "Draft", "amount": 100, "due_date": [1700000000000000000], "status": {"Completed": null}, "completed_at": []}
	]}},
	"status": {"Active": null},
	"escrow_amount": 200,
	"spent_amount": 50,
	"time_entries": [
		{"id": 7, "lawyer_principal": "p1", "hours": 3.5, "rate": 10, "description": "Drafting", "timestamp": 1, "approved": false}
	],
	"documents": [],
	"messages": [{"id": 1, "sender": "p2", "content": "Hi", "timestamp": 2}],
	"created_at": 1,
	"updated_at": 2,
	"completed_at": []
}`

func TestNewHTTPClientValidatesConfig(t *testing.T) {
	tests := []models.BackendConfig{
		{CanisterId: "c", Timeout: time.Second},
		{URL: "http://localhost", Timeout: time.Second},
		{URL: "http://localhost", CanisterId: "c"},
	}
	for _, cfg := range tests {
		_, err := NewHTTPClient(cfg, nil)
		assert.Error(t, err)
	}
}

func TestGetUserTypeDecodesVariants(t *testing.T) {
	tests := []struct {
		reply string
		want  models.UserType
	}{
		{`[{"Lawyer": null}]`, models.UserTypeLawyer},
		{`[{"Client": null}]`, models.UserTypeClient},
		{`{"Both": null}`, models.UserTypeBoth},
		{`[]`, ""},
		{`null`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			c, canister := newTestClient(t, map[string]string{"getUserType": tt.reply})
			got, err := c.GetUserType(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, kindQuery, canister.last().kind)
		})
	}
}

func TestGetUserTypeRejectsUnknownTag(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{"getUserType": `[{"Judge": null}]`})
	_, err := c.GetUserType(context.Background())
	assert.ErrorIs(t, err, ErrMalformedReply)
}

func TestAnonymousCallCarriesAnonymousSender(t *testing.T) {
	c, canister := newTestClient(t, map[string]string{"getAllLawyers": `[]`})
	lawyers, err := c.GetAllLawyers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lawyers)

	h := canister.last().header
	assert.Equal(t, identity.Anonymous.String(), h.Get(headerSender))
	assert.Empty(t, h.Get(headerSignature))
}

func TestSignedUpdateCall(t *testing.T) {
	c, canister := newTestClient(t, map[string]string{"addTimeEntry": `{"ok": null}`})
	caller := newTestCaller(t)
	ctx := models.WithCaller(context.Background(), caller)

	err := c.AddTimeEntry(ctx, models.NewTimeEntry{
		EngagementId: "e1",
		Description:  "Drafted revisions",
		Hours:        decimal.RequireFromString("3.5"),
	})
	require.NoError(t, err)

	call := canister.last()
	assert.Equal(t, kindCall, call.kind)
	assert.Equal(t, "addTimeEntry", call.method)
	require.Len(t, call.args, 3)
	assert.JSONEq(t, `3.5`, string(call.args[2]))

	assert.Equal(t, "p1", call.header.Get(headerSender))
	assert.NotEmpty(t, call.header.Get(headerIdempotent))

	sig, err := base64.StdEncoding.DecodeString(call.header.Get(headerSignature))
	require.NoError(t, err)
	payload := signedPayload(kindCall, "addTimeEntry", call.header.Get(headerTimestamp), call.body)
	assert.True(t, ed25519.Verify(caller.key.Public().(ed25519.PublicKey), payload, sig))
}

func TestIdempotencyKeyIsUniquePerCall(t *testing.T) {
	c, canister := newTestClient(t, map[string]string{"sendMessage": `{"ok": null}`})
	ctx := context.Background()

	require.NoError(t, c.SendMessage(ctx, models.NewMessage{EngagementId: "e1", Content: "one"}))
	first := canister.last().header.Get(headerIdempotent)
	require.NoError(t, c.SendMessage(ctx, models.NewMessage{EngagementId: "e1", Content: "two"}))
	second := canister.last().header.Get(headerIdempotent)

	assert.NotEqual(t, first, second)
}

func TestResultErrBecomesRemoteError(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{
		"registerClient":   `{"err": "Client already registered"}`,
		"getLawyerProfile": `{"Err": "Lawyer not found"}`,
	})
	ctx := context.Background()

	err := c.RegisterClient(ctx, models.CreateClientProfile{Name: "A", Email: "a@b.co", WalletAddress: "w"})
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "registerClient", re.Method)
	assert.Equal(t, "Client already registered", re.Message)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = c.GetLawyerProfile(ctx, "p9")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNotFoundMatchesExactReplies(t *testing.T) {
	tests := []struct {
		message string
		want    bool
	}{
		{"Lawyer not found", true},
		{"engagement not found", true},
		{" Escrow account not found ", true},
		{"lawyer not found in cache", false},
		{"Time entry not found: upstream timeout", false},
		{"Client already registered", false},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", &RemoteError{Method: "getLawyerProfile", Message: tt.message})
			assert.Equal(t, tt.want, errors.Is(err, ErrNotFound))
		})
	}
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{})
	_, err := c.GetMyEngagements(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	var re *RemoteError
	assert.False(t, errors.As(err, &re))
	assert.Contains(t, err.Error(), "canister trapped")
}

func TestGetEngagementDecodesOnce(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{"getEngagement": `{"ok": ` + engagementJSON + `}`})

	e, err := c.GetEngagement(context.Background(), "e1")
	require.NoError(t, err)

	assert.Equal(t, models.EngagementActive, e.Status)
	assert.Equal(t, uint64(150), e.EscrowBalance())
	fee, ok := e.EngagementType.EngagementType.(models.MilestoneFee)
	require.True(t, ok)
	require.Len(t, fee.Milestones, 1)
	assert.Equal(t, models.MilestoneCompleted, fee.Milestones[0].Status)
	require.NotNil(t, fee.Milestones[0].DueDate)
	assert.Nil(t, fee.Milestones[0].CompletedAt)
	assert.True(t, decimal.RequireFromString("3.5").Equal(e.TimeEntries[0].Hours))
	assert.Equal(t, uint64(35), e.TimeEntries[0].Amount())
	assert.Nil(t, e.CompletedAt)
	assert.Equal(t, "Hi", e.Messages[0].Content)
}

func TestGetMyEngagementsRejectsUnknownStatus(t *testing.T) {
	bad := strings.Replace(engagementJSON, `{"Active": null}`, `{"Archived": null}`, 1)
	c, _ := newTestClient(t, map[string]string{"getMyEngagements": `[` + bad + `]`})

	_, err := c.GetMyEngagements(context.Background())
	assert.ErrorIs(t, err, ErrMalformedReply)
}

func TestCreateEngagementEncodesFeeVariant(t *testing.T) {
	c, canister := newTestClient(t, map[string]string{"createEngagement": `{"ok": "e42"}`})

	id, err := c.CreateEngagement(context.Background(), models.CreateEngagement{
		Title:          "Contract Review",
		Description:    "Review of SaaS agreement",
		Lawyer:         "p1",
		Client:         "p2",
		EngagementType: models.FeeArrangement{EngagementType: models.HourlyFee{Rate: 250}},
		EscrowAmount:   1000,
	})
	require.NoError(t, err)
	assert.Equal(t, "e42", id)

	args := canister.last().args
	require.Len(t, args, 1)
	var sent struct {
		EngagementType map[string]json.RawMessage `json:"engagement_type"`
		EscrowAmount   uint64                     `json:"escrow_amount"`
	}
	require.NoError(t, json.Unmarshal(args[0], &sent))
	assert.JSONEq(t, `{"rate": 250}`, string(sent.EngagementType["Hourly"]))
	assert.Equal(t, uint64(1000), sent.EscrowAmount)
}

func TestRegisterLawyerEncodesOptionalRate(t *testing.T) {
	c, canister := newTestClient(t, map[string]string{"registerLawyer": `{"ok": null}`})
	ctx := context.Background()

	require.NoError(t, c.RegisterLawyer(ctx, models.CreateLawyerProfile{Name: "Jane"}))
	assert.Contains(t, string(canister.last().args[0]), `"hourly_rate":[]`)

	rate := uint64(250)
	require.NoError(t, c.RegisterLawyer(ctx, models.CreateLawyerProfile{Name: "Jane", HourlyRate: &rate}))
	assert.Contains(t, string(canister.last().args[0]), `"hourly_rate":[250]`)
}

func TestGetTransactionsAndEscrow(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{
		"getTransactions": `[{"id": 1, "engagement_id": "e1", "from": "p2", "to": "escrow", "amount": 200,
			"tx_type": {"Deposit": null}, "memo": "", "timestamp": 1, "block_index": [12]}]`,
		"getEscrowAccount": `{"ok": {"engagement_id": "e1", "client": "p2", "lawyer": "p1", "balance": 150,
			"total_deposited": 200, "total_released": 50, "total_refunded": 0, "transactions": [1],
			"created_at": 1, "updated_at": 2}}`,
	})
	ctx := context.Background()

	txs, err := c.GetTransactions(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, models.TransactionDeposit, txs[0].TxType)
	require.NotNil(t, txs[0].BlockIndex)
	assert.Equal(t, uint64(12), *txs[0].BlockIndex)

	account, err := c.GetEscrowAccount(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, uint64(150), account.Balance)
	assert.Equal(t, []uint64{1}, account.Transactions)
}

func TestOptionalValue(t *testing.T) {
	var o opt[int64]
	require.NoError(t, json.Unmarshal([]byte(`[5]`), &o))
	require.NotNil(t, o.Value)
	assert.Equal(t, int64(5), *o.Value)

	assert.Error(t, json.Unmarshal([]byte(`[1, 2]`), &o))

	data, err := json.Marshal(some[int64](9))
	require.NoError(t, err)
	assert.Equal(t, `[9]`, string(data))
}
