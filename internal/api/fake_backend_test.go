package api

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"legal-fee-tracker-go/internal/backend"
	"legal-fee-tracker-go/internal/database"
	"legal-fee-tracker-go/internal/identity"
	"legal-fee-tracker-go/internal/models"
	"legal-fee-tracker-go/internal/session"

	"github.com/stretchr/testify/require"
)

// fakeBackend is an in-memory backend keyed by the calling principal.
type fakeBackend struct {
	mu          sync.Mutex
	userTypes   map[string]models.UserType
	lawyers     map[string]models.LawyerProfile
	clients     map[string]models.ClientProfile
	engagements map[string]models.Engagement
	txs         map[string][]models.Transaction
	escrows     map[string]models.EscrowAccount
	calls       []string
	failWith    error
	nextId      int
}

var _ backend.Client = (*fakeBackend)(nil)

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		userTypes:   make(map[string]models.UserType),
		lawyers:     make(map[string]models.LawyerProfile),
		clients:     make(map[string]models.ClientProfile),
		engagements: make(map[string]models.Engagement),
		txs:         make(map[string][]models.Transaction),
		escrows:     make(map[string]models.EscrowAccount),
	}
}

func (f *fakeBackend) enter(ctx context.Context, method string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, method)
	f.mu.Unlock()
	if f.failWith != nil {
		return "", f.failWith
	}
	if caller := models.CallerFromContext(ctx); caller != nil {
		return caller.Principal(), nil
	}
	return identity.Anonymous.String(), nil
}

func (f *fakeBackend) called(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (f *fakeBackend) GetUserType(ctx context.Context) (models.UserType, error) {
	p, err := f.enter(ctx, "getUserType")
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userTypes[p], nil
}

func (f *fakeBackend) GetLawyerProfile(ctx context.Context, principal string) (*models.LawyerProfile, error) {
	if _, err := f.enter(ctx, "getLawyerProfile"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lawyers[principal]
	if !ok {
		return nil, &backend.RemoteError{Method: "getLawyerProfile", Message: "Lawyer not found"}
	}
	return &l, nil
}

func (f *fakeBackend) GetClientProfile(ctx context.Context, principal string) (*models.ClientProfile, error) {
	if _, err := f.enter(ctx, "getClientProfile"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[principal]
	if !ok {
		return nil, &backend.RemoteError{Method: "getClientProfile", Message: "Client not found"}
	}
	return &c, nil
}

func (f *fakeBackend) RegisterLawyer(ctx context.Context, p models.CreateLawyerProfile) error {
	principal, err := f.enter(ctx, "registerLawyer")
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.lawyers[principal]; ok {
		return &backend.RemoteError{Method: "registerLawyer", Message: "Lawyer already registered"}
	}
	f.lawyers[principal] = models.LawyerProfile{
		Principal:       principal,
		Name:            p.Name,
		Email:           p.Email,
		WalletAddress:   p.WalletAddress,
		Bio:             p.Bio,
		Jurisdiction:    p.Jurisdiction,
		Specializations: p.Specializations,
		HourlyRate:      p.HourlyRate,
	}
	f.userTypes[principal] = mergeUserType(f.userTypes[principal], models.UserTypeLawyer)
	return nil
}

func (f *fakeBackend) RegisterClient(ctx context.Context, p models.CreateClientProfile) error {
	principal, err := f.enter(ctx, "registerClient")
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients[principal] = models.ClientProfile{
		Principal:     principal,
		Name:          p.Name,
		Email:         p.Email,
		WalletAddress: p.WalletAddress,
	}
	f.userTypes[principal] = mergeUserType(f.userTypes[principal], models.UserTypeClient)
	return nil
}

func mergeUserType(have, add models.UserType) models.UserType {
	if have == "" || have == add {
		return add
	}
	return models.UserTypeBoth
}

func (f *fakeBackend) GetAllLawyers(ctx context.Context) ([]models.LawyerProfile, error) {
	if _, err := f.enter(ctx, "getAllLawyers"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.LawyerProfile, 0, len(f.lawyers))
	for _, l := range f.lawyers {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeBackend) GetMyEngagements(ctx context.Context) ([]models.Engagement, error) {
	principal, err := f.enter(ctx, "getMyEngagements")
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Engagement
	for _, e := range f.engagements {
		if e.Lawyer == principal || e.Client == principal {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out, nil
}

func (f *fakeBackend) GetEngagement(ctx context.Context, id string) (*models.Engagement, error) {
	if _, err := f.enter(ctx, "getEngagement"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.engagements[id]
	if !ok {
		return nil, &backend.RemoteError{Method: "getEngagement", Message: "Engagement not found"}
	}
	return &e, nil
}

func (f *fakeBackend) CreateEngagement(ctx context.Context, in models.CreateEngagement) (string, error) {
	if _, err := f.enter(ctx, "createEngagement"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextId++
	id := fmt.Sprintf("eng-%d", f.nextId)
	f.engagements[id] = models.Engagement{
		Id:             id,
		Title:          in.Title,
		Description:    in.Description,
		Lawyer:         in.Lawyer,
		Client:         in.Client,
		EngagementType: in.EngagementType,
		Status:         models.EngagementPending,
		EscrowAmount:   in.EscrowAmount,
	}
	return id, nil
}

func (f *fakeBackend) AddTimeEntry(ctx context.Context, entry models.NewTimeEntry) error {
	principal, err := f.enter(ctx, "addTimeEntry")
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.engagements[entry.EngagementId]
	var rate uint64
	if h, ok := e.EngagementType.EngagementType.(models.HourlyFee); ok {
		rate = h.Rate
	}
	e.TimeEntries = append(e.TimeEntries, models.TimeEntry{
		Id:              uint64(len(e.TimeEntries) + 1),
		LawyerPrincipal: principal,
		Hours:           entry.Hours,
		Rate:            rate,
		Description:     entry.Description,
	})
	f.engagements[e.Id] = e
	return nil
}

func (f *fakeBackend) setApproval(engagementId string, entryId uint64, approve bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.engagements[engagementId]
	entries := make([]models.TimeEntry, 0, len(e.TimeEntries))
	for _, t := range e.TimeEntries {
		if t.Id == entryId {
			if !approve {
				continue
			}
			t.Approved = true
			e.SpentAmount += t.Amount()
		}
		entries = append(entries, t)
	}
	e.TimeEntries = entries
	f.engagements[engagementId] = e
}

func (f *fakeBackend) ApproveTimeEntry(ctx context.Context, engagementId string, entryId uint64) error {
	if _, err := f.enter(ctx, "approveTimeEntry"); err != nil {
		return err
	}
	f.setApproval(engagementId, entryId, true)
	return nil
}

func (f *fakeBackend) RejectTimeEntry(ctx context.Context, engagementId string, entryId uint64) error {
	if _, err := f.enter(ctx, "rejectTimeEntry"); err != nil {
		return err
	}
	f.setApproval(engagementId, entryId, false)
	return nil
}

func (f *fakeBackend) SendMessage(ctx context.Context, m models.NewMessage) error {
	principal, err := f.enter(ctx, "sendMessage")
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.engagements[m.EngagementId]
	e.Messages = append(e.Messages, models.Message{Id: uint64(len(e.Messages) + 1), Sender: principal, Content: m.Content})
	f.engagements[e.Id] = e
	return nil
}

func (f *fakeBackend) GetTransactions(ctx context.Context, engagementId string) ([]models.Transaction, error) {
	if _, err := f.enter(ctx, "getTransactions"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.txs[engagementId], nil
}

func (f *fakeBackend) GetEscrowAccount(ctx context.Context, engagementId string) (*models.EscrowAccount, error) {
	if _, err := f.enter(ctx, "getEscrowAccount"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.escrows[engagementId]
	if !ok {
		return nil, &backend.RemoteError{Method: "getEscrowAccount", Message: "Escrow account not found"}
	}
	return &account, nil
}

// newTestSession returns a logged-in session backed by a local key and a
// SQLite session store in a temp directory.
func newTestSession(t *testing.T) (*session.Context, string) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	sessions, err := database.NewService(ctx, models.DatabaseConfig{
		Path:         filepath.Join(dir, "sessions.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  time.Second,
	})
	require.NoError(t, err)

	sess, err := session.New(identity.NewKeyFileProvider(filepath.Join(dir, "identity"), nil), sessions, session.Options{
		IdentityProvider: identity.LocalProvider,
		MaxTimeToLive:    time.Hour,
		IdleTimeout:      30 * time.Minute,
		InitTimeout:      5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(sess.Close)

	require.NoError(t, sess.Login(ctx))
	caller, err := sess.Caller()
	require.NoError(t, err)
	return sess, caller.Principal()
}
