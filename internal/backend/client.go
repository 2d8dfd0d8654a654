package backend

import (
	"context"

	"legal-fee-tracker-go/internal/models"
)

// Client is the engagement backend. Every call is made on behalf of the
// caller attached to ctx with models.WithCaller, or anonymously when none is.
// Calls are never retried automatically.
type Client interface {
	// GetUserType returns the zero UserType when the caller has no profile.
	GetUserType(ctx context.Context) (models.UserType, error)
	GetLawyerProfile(ctx context.Context, principal string) (*models.LawyerProfile, error)
	GetClientProfile(ctx context.Context, principal string) (*models.ClientProfile, error)
	RegisterLawyer(ctx context.Context, profile models.CreateLawyerProfile) error
	RegisterClient(ctx context.Context, profile models.CreateClientProfile) error
	GetAllLawyers(ctx context.Context) ([]models.LawyerProfile, error)

	GetMyEngagements(ctx context.Context) ([]models.Engagement, error)
	GetEngagement(ctx context.Context, id string) (*models.Engagement, error)
	// CreateEngagement returns the id assigned by the backend.
	CreateEngagement(ctx context.Context, engagement models.CreateEngagement) (string, error)
	AddTimeEntry(ctx context.Context, entry models.NewTimeEntry) error
	ApproveTimeEntry(ctx context.Context, engagementId string, entryId uint64) error
	RejectTimeEntry(ctx context.Context, engagementId string, entryId uint64) error
	SendMessage(ctx context.Context, message models.NewMessage) error

	GetTransactions(ctx context.Context, engagementId string) ([]models.Transaction, error)
	GetEscrowAccount(ctx context.Context, engagementId string) (*models.EscrowAccount, error)
}
