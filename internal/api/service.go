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
	"legal-fee-tracker-go/internal/loader"
	"legal-fee-tracker-go/internal/models"
	"legal-fee-tracker-go/internal/schema"
	"legal-fee-tracker-go/internal/session"

	"go.uber.org/zap"
)

var (
	ErrRoleUnresolved  = errors.New("profile required: register as a lawyer or client first")
	ErrNotParty        = errors.New("you are not a party to this engagement")
	ErrForbidden       = errors.New("action not allowed for your role in this engagement")
	ErrNotActive       = errors.New("engagement is not active")
	ErrEntryNotPending = errors.New("time entry is not awaiting approval")
)

// TrackerService composes the session and the backend into the operations
// the CLI exposes.
type TrackerService struct {
	backend backend.Client
	session *session.Context

	dashboard *loader.Latest[*models.Dashboard]
	detail    *loader.Latest[*models.EngagementDetail]
}

func NewTrackerService(client backend.Client, sess *session.Context) *TrackerService {
	return &TrackerService{
		backend:   client,
		session:   sess,
		dashboard: loader.New[*models.Dashboard]("dashboard"),
		detail:    loader.New[*models.EngagementDetail]("engagement_detail"),
	}
}

// Close cancels loads still in flight.
func (s *TrackerService) Close() {
	s.dashboard.Close()
	s.detail.Close()
}

func (s *TrackerService) HealthCheck(ctx context.Context) error {
	if _, err := s.backend.GetAllLawyers(ctx); err != nil {
		return fmt.Errorf("backend health check failed: %w", err)
	}
	return nil
}

// ResolveRole looks up the caller's profile type and records the role on
// the session. ok is false when the caller has not registered yet.
func (s *TrackerService) ResolveRole(ctx context.Context) (models.Role, bool, error) {
	callCtx, err := s.session.Require(ctx)
	if err != nil {
		return "", false, err
	}
	principal := models.CallerFromContext(callCtx).Principal()

	userType, err := s.backend.GetUserType(callCtx)
	if err != nil {
		zap.L().Error("Failed to get user type", zap.String("principal", principal), zap.Error(err))
		return "", false, err
	}

	var role models.Role
	switch userType {
	case models.UserTypeLawyer:
		role = models.RoleLawyer
	case models.UserTypeClient:
		role = models.RoleClient
	case models.UserTypeBoth:
		role, err = s.preferredRole(callCtx, principal)
		if err != nil {
			return "", false, err
		}
	default:
		zap.L().Info("No profile registered", zap.String("principal", principal))
		return "", false, nil
	}

	if err := s.session.SetRole(ctx, role); err != nil {
		return "", false, err
	}
	zap.L().Info("Role resolved", zap.String("principal", principal), zap.String("role", role.String()))
	return role, true, nil
}

// preferredRole picks Lawyer for a principal registered as both when its
// lawyer profile can be loaded.
func (s *TrackerService) preferredRole(ctx context.Context, principal string) (models.Role, error) {
	_, err := s.backend.GetLawyerProfile(ctx, principal)
	switch {
	case err == nil:
		return models.RoleLawyer, nil
	case errors.Is(err, backend.ErrNotFound):
		return models.RoleClient, nil
	default:
		return "", err
	}
}

func (s *TrackerService) RegisterLawyer(ctx context.Context, in models.CreateLawyerProfile) (*models.LawyerProfile, error) {
	profile, err := schema.ValidateCreateLawyerProfile(in)
	if err != nil {
		return nil, err
	}
	callCtx, err := s.session.Require(ctx)
	if err != nil {
		return nil, err
	}
	principal := models.CallerFromContext(callCtx).Principal()

	if err := s.backend.RegisterLawyer(callCtx, profile); err != nil {
		zap.L().Error("Failed to register lawyer", zap.String("principal", principal), zap.Error(err))
		return nil, err
	}
	if err := s.session.SetRole(ctx, models.RoleLawyer); err != nil {
		return nil, err
	}

	zap.L().Info("Lawyer registered", zap.String("principal", principal))
	return s.backend.GetLawyerProfile(callCtx, principal)
}

func (s *TrackerService) RegisterClient(ctx context.Context, in models.CreateClientProfile) (*models.ClientProfile, error) {
	profile, err := schema.ValidateCreateClientProfile(in)
	if err != nil {
		return nil, err
	}
	callCtx, err := s.session.Require(ctx)
	if err != nil {
		return nil, err
	}
	principal := models.CallerFromContext(callCtx).Principal()

	if err := s.backend.RegisterClient(callCtx, profile); err != nil {
		zap.L().Error("Failed to register client", zap.String("principal", principal), zap.Error(err))
		return nil, err
	}
	if err := s.session.SetRole(ctx, models.RoleClient); err != nil {
		return nil, err
	}

	zap.L().Info("Client registered", zap.String("principal", principal))
	return s.backend.GetClientProfile(callCtx, principal)
}

// requireRole returns a signed context and the resolved role.
func (s *TrackerService) requireRole(ctx context.Context) (context.Context, models.Role, error) {
	callCtx, err := s.session.Require(ctx)
	if err != nil {
		return nil, "", err
	}
	role, ok := s.session.Role()
	if !ok {
		return nil, "", ErrRoleUnresolved
	}
	return callCtx, role, nil
}
