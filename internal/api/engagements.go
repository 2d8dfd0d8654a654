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

package api

import (
	"context"
	"errors"
	"fmt"

	"legal-fee-tracker-go/internal/backend"
	"legal-fee-tracker-go/internal/common"
	"legal-fee-tracker-go/internal/models"
	"legal-fee-tracker-go/internal/schema"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PartyRole is the role principal plays in e: Lawyer when it is the
// engagement lawyer, Client otherwise.
func PartyRole(principal string, e models.Engagement) models.Role {
	if principal == e.Lawyer {
		return models.RoleLawyer
	}
	return models.RoleClient
}

// OtherParty returns the principal on the other side of e from viewer.
func OtherParty(viewer models.Role, e models.Engagement) string {
	if viewer == models.RoleLawyer {
		return e.Client
	}
	return e.Lawyer
}

func isParty(principal string, e models.Engagement) bool {
	return principal == e.Lawyer || principal == e.Client
}

// Fees derives the billing summary of an engagement from its time entries.
func Fees(e models.Engagement) models.FeeBreakdown {
	fees := models.FeeBreakdown{
		HoursLogged:   decimal.Zero,
		ApprovedHours: decimal.Zero,
		EscrowBalance: e.EscrowBalance(),
	}
	for _, t := range e.TimeEntries {
		amount := t.Amount()
		fees.TotalBilled += amount
		fees.HoursLogged = fees.HoursLogged.Add(t.Hours)
		if t.Approved {
			fees.Approved += amount
			fees.ApprovedHours = fees.ApprovedHours.Add(t.Hours)
		} else {
			fees.Pending += amount
			fees.PendingEntries++
		}
	}
	return fees
}

func dashboardStats(engagements []models.Engagement) models.DashboardStats {
	stats := models.DashboardStats{HoursLogged: decimal.Zero}
	for _, e := range engagements {
		if e.Status == models.EngagementActive {
			stats.ActiveEngagements++
		}
		stats.TotalEscrow += e.EscrowAmount
		stats.TotalSpent += e.SpentAmount
		for _, t := range e.TimeEntries {
			stats.HoursLogged = stats.HoursLogged.Add(t.Hours)
			if !t.Approved {
				stats.PendingApprovals++
			}
		}
	}
	return stats
}

// Dashboard loads the caller's profile and engagements concurrently. A
// newer Dashboard call supersedes one still in flight.
func (s *TrackerService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	callCtx, role, err := s.requireRole(ctx)
	if err != nil {
		return nil, err
	}
	principal := models.CallerFromContext(callCtx).Principal()

	return s.dashboard.Load(callCtx, func(ctx context.Context) (*models.Dashboard, error) {
		d := &models.Dashboard{Principal: principal, Role: role}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if role == models.RoleLawyer {
				profile, err := s.backend.GetLawyerProfile(gctx, principal)
				if err != nil {
					return fmt.Errorf("unable to load lawyer profile: %w", err)
				}
				if err := schema.ValidateLawyerProfile(*profile); err != nil {
					zap.L().Warn("Lawyer profile failed consistency checks", zap.String("principal", principal), zap.Error(err))
				}
				d.Lawyer = profile
				d.DisplayName = profile.Name
				return nil
			}
			profile, err := s.backend.GetClientProfile(gctx, principal)
			if err != nil {
				return fmt.Errorf("unable to load client profile: %w", err)
			}
			if err := schema.ValidateClientProfile(*profile); err != nil {
				zap.L().Warn("Client profile failed consistency checks", zap.String("principal", principal), zap.Error(err))
			}
			d.Client = profile
			d.DisplayName = profile.Name
			return nil
		})
		g.Go(func() error {
			engagements, err := s.backend.GetMyEngagements(gctx)
			if err != nil {
				return fmt.Errorf("unable to load engagements: %w", err)
			}
			d.Engagements = engagements
			return nil
		})
		if err := g.Wait(); err != nil {
			zap.L().Error("Failed to load dashboard", zap.String("principal", principal), zap.Error(err))
			return nil, err
		}

		d.Stats = dashboardStats(d.Engagements)
		zap.L().Debug("Dashboard loaded",
			zap.String("principal", principal),
			zap.Int("engagements", len(d.Engagements)))
		return d, nil
	})
}

// EngagementDetail loads an engagement with the values derived for the
// caller. The other party's name, the escrow transactions and the escrow
// account are best effort.
func (s *TrackerService) EngagementDetail(ctx context.Context, id string) (*models.EngagementDetail, error) {
	callCtx, err := s.session.Require(ctx)
	if err != nil {
		return nil, err
	}
	principal := models.CallerFromContext(callCtx).Principal()

	return s.detail.Load(callCtx, func(ctx context.Context) (*models.EngagementDetail, error) {
		e, err := s.backend.GetEngagement(ctx, id)
		if err != nil {
			zap.L().Error("Failed to load engagement", zap.String("engagement_id", id), zap.Error(err))
			return nil, err
		}
		if !isParty(principal, *e) {
			return nil, ErrNotParty
		}
		if err := schema.ValidateEngagement(*e); err != nil {
			zap.L().Warn("Engagement failed consistency checks", zap.String("engagement_id", id), zap.Error(err))
		}

		viewer := PartyRole(principal, *e)
		other := OtherParty(viewer, *e)
		detail := &models.EngagementDetail{
			Engagement:     *e,
			ViewerRole:     viewer,
			OtherPartyName: common.TruncatePrincipal(other),
			Fees:           Fees(*e),
		}

		var g errgroup.Group
		g.Go(func() error {
			name, err := s.partyName(ctx, viewer, other)
			if err != nil {
				zap.L().Warn("Failed to load other party profile", zap.String("principal", other), zap.Error(err))
				return nil
			}
			detail.OtherPartyName = name
			return nil
		})
		g.Go(func() error {
			txs, err := s.backend.GetTransactions(ctx, id)
			if err != nil {
				zap.L().Warn("Failed to load transactions", zap.String("engagement_id", id), zap.Error(err))
				return nil
			}
			for _, tx := range txs {
				if err := schema.ValidateTransaction(tx); err != nil {
					zap.L().Warn("Skipping malformed transaction",
						zap.String("engagement_id", id),
						zap.Uint64("transaction_id", tx.Id),
						zap.Error(err))
					continue
				}
				detail.Transactions = append(detail.Transactions, tx)
			}
			return nil
		})
		g.Go(func() error {
			account, err := s.backend.GetEscrowAccount(ctx, id)
			switch {
			case err == nil:
				detail.Escrow = account
			case errors.Is(err, backend.ErrNotFound):
				zap.L().Debug("No escrow account", zap.String("engagement_id", id))
			default:
				zap.L().Warn("Failed to load escrow account", zap.String("engagement_id", id), zap.Error(err))
			}
			return nil
		})
		_ = g.Wait()

		return detail, nil
	})
}

func (s *TrackerService) partyName(ctx context.Context, viewer models.Role, other string) (string, error) {
	if viewer == models.RoleLawyer {
		p, err := s.backend.GetClientProfile(ctx, other)
		if err != nil {
			return "", err
		}
		return p.Name, nil
	}
	p, err := s.backend.GetLawyerProfile(ctx, other)
	if err != nil {
		return "", err
	}
	return p.Name, nil
}

// CreateEngagement fills in the caller's side of the engagement, validates
// it and creates it. Returns the new engagement id.
func (s *TrackerService) CreateEngagement(ctx context.Context, in models.CreateEngagement) (string, error) {
	callCtx, role, err := s.requireRole(ctx)
	if err != nil {
		return "", err
	}
	principal := models.CallerFromContext(callCtx).Principal()

	switch {
	case role == models.RoleLawyer && in.Lawyer == "":
		in.Lawyer = principal
	case role == models.RoleClient && in.Client == "":
		in.Client = principal
	}

	out, err := schema.ValidateCreateEngagement(in)
	if err != nil {
		return "", err
	}
	if out.Lawyer == "" {
		return "", schema.NewValidationError("lawyer", "required")
	}
	if out.Client == "" {
		return "", schema.NewValidationError("client", "required")
	}
	if out.Lawyer != principal && out.Client != principal {
		return "", ErrNotParty
	}

	id, err := s.backend.CreateEngagement(callCtx, out)
	if err != nil {
		zap.L().Error("Failed to create engagement", zap.String("principal", principal), zap.Error(err))
		return "", err
	}

	zap.L().Info("Engagement created",
		zap.String("engagement_id", id),
		zap.String("lawyer", out.Lawyer),
		zap.String("client", out.Client),
		zap.String("fee_type", string(out.EngagementType.Kind())))
	return id, nil
}

// AddTimeEntry logs work on an active engagement. Only the engagement
// lawyer may log time.
func (s *TrackerService) AddTimeEntry(ctx context.Context, in models.NewTimeEntry) error {
	entry, err := schema.ValidateTimeEntry(in)
	if err != nil {
		return err
	}
	callCtx, e, viewer, err := s.engagementFor(ctx, entry.EngagementId)
	if err != nil {
		return err
	}
	if viewer != models.RoleLawyer {
		return ErrForbidden
	}
	if e.Status != models.EngagementActive {
		return ErrNotActive
	}

	if err := s.backend.AddTimeEntry(callCtx, entry); err != nil {
		zap.L().Error("Failed to add time entry", zap.String("engagement_id", entry.EngagementId), zap.Error(err))
		return err
	}
	zap.L().Info("Time entry added",
		zap.String("engagement_id", entry.EngagementId),
		zap.String("hours", entry.Hours.String()))
	return nil
}

// ApproveTimeEntry approves a pending entry. Only the engagement client may
// approve.
func (s *TrackerService) ApproveTimeEntry(ctx context.Context, engagementId string, entryId uint64) error {
	callCtx, err := s.pendingEntryForClient(ctx, engagementId, entryId)
	if err != nil {
		return err
	}
	if err := s.backend.ApproveTimeEntry(callCtx, engagementId, entryId); err != nil {
		zap.L().Error("Failed to approve time entry",
			zap.String("engagement_id", engagementId), zap.Uint64("entry_id", entryId), zap.Error(err))
		return err
	}
	zap.L().Info("Time entry approved", zap.String("engagement_id", engagementId), zap.Uint64("entry_id", entryId))
	return nil
}

// RejectTimeEntry rejects a pending entry. Only the engagement client may
// reject.
func (s *TrackerService) RejectTimeEntry(ctx context.Context, engagementId string, entryId uint64) error {
	callCtx, err := s.pendingEntryForClient(ctx, engagementId, entryId)
	if err != nil {
		return err
	}
	if err := s.backend.RejectTimeEntry(callCtx, engagementId, entryId); err != nil {
		zap.L().Error("Failed to reject time entry",
			zap.String("engagement_id", engagementId), zap.Uint64("entry_id", entryId), zap.Error(err))
		return err
	}
	zap.L().Info("Time entry rejected", zap.String("engagement_id", engagementId), zap.Uint64("entry_id", entryId))
	return nil
}

func (s *TrackerService) pendingEntryForClient(ctx context.Context, engagementId string, entryId uint64) (context.Context, error) {
	if engagementId == "" {
		return nil, schema.NewValidationError("engagement_id", "required")
	}
	callCtx, e, viewer, err := s.engagementFor(ctx, engagementId)
	if err != nil {
		return nil, err
	}
	if viewer != models.RoleClient {
		return nil, ErrForbidden
	}
	for _, t := range e.TimeEntries {
		if t.Id == entryId {
			if t.Approved {
				return nil, ErrEntryNotPending
			}
			return callCtx, nil
		}
	}
	return nil, fmt.Errorf("time entry %d: %w", entryId, ErrEntryNotPending)
}

// SendMessage posts a message to an engagement the caller is party to.
func (s *TrackerService) SendMessage(ctx context.Context, in models.NewMessage) error {
	msg, err := schema.ValidateMessage(in)
	if err != nil {
		return err
	}
	callCtx, _, _, err := s.engagementFor(ctx, msg.EngagementId)
	if err != nil {
		return err
	}

	if err := s.backend.SendMessage(callCtx, msg); err != nil {
		zap.L().Error("Failed to send message", zap.String("engagement_id", msg.EngagementId), zap.Error(err))
		return err
	}
	zap.L().Info("Message sent", zap.String("engagement_id", msg.EngagementId))
	return nil
}

// engagementFor loads an engagement and the caller's role in it.
func (s *TrackerService) engagementFor(ctx context.Context, id string) (context.Context, *models.Engagement, models.Role, error) {
	callCtx, err := s.session.Require(ctx)
	if err != nil {
		return nil, nil, "", err
	}
	principal := models.CallerFromContext(callCtx).Principal()

	e, err := s.backend.GetEngagement(callCtx, id)
	if err != nil {
		return nil, nil, "", err
	}
	if !isParty(principal, *e) {
		return nil, nil, "", ErrNotParty
	}
	return callCtx, e, PartyRole(principal, *e), nil
}
