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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"legal-fee-tracker-go/internal/models"
	"legal-fee-tracker-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Service) LoadSession(ctx context.Context) (*models.SessionRecord, error) {
	var rec models.SessionRecord
	var role string
	err := s.db.QueryRowContext(ctx, queryGetActiveSession).Scan(
		&rec.Id, &rec.Principal, &role, &rec.CreatedAt, &rec.LastActiveAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNoSession
		}
		zap.L().Error("Failed to query active session", zap.Error(err))
		return nil, fmt.Errorf("unable to query active session: %w", err)
	}
	rec.Role = models.Role(role)

	zap.L().Debug("Loaded persisted session",
		zap.String("session_id", rec.Id),
		zap.String("principal", rec.Principal))
	return &rec, nil
}

func (s *Service) SaveSession(ctx context.Context, rec models.SessionRecord) error {
	if rec.Principal == "" {
		return fmt.Errorf("session principal cannot be empty")
	}
	if rec.Id == "" {
		rec.Id = uuid.New().String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("unable to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zap.L().Warn("Failed to rollback session transaction", zap.Error(err))
		}
	}()

	if _, err := tx.ExecContext(ctx, queryEndActiveSessions, rec.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("unable to end previous session: %w", err)
	}
	_, err = tx.ExecContext(ctx, queryInsertSession,
		rec.Id, rec.Principal, string(rec.Role), rec.CreatedAt.UTC(), rec.LastActiveAt.UTC())
	if err != nil {
		return fmt.Errorf("unable to insert session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("unable to commit session: %w", err)
	}

	zap.L().Info("Session saved",
		zap.String("session_id", rec.Id),
		zap.String("principal", rec.Principal))
	return nil
}

func (s *Service) UpdateRole(ctx context.Context, principal string, role models.Role) error {
	res, err := s.db.ExecContext(ctx, queryUpdateSessionRole, string(role), principal)
	if err != nil {
		return fmt.Errorf("unable to update session role: %w", err)
	}
	if err := s.expectUpdated(ctx, res, principal); err != nil {
		return err
	}

	zap.L().Debug("Session role updated", zap.String("principal", principal), zap.String("role", role.String()))
	return nil
}

// TouchSession never moves last_active_at backwards.
func (s *Service) TouchSession(ctx context.Context, principal string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, queryTouchSession, at.UTC(), principal, at.UTC())
	if err != nil {
		return fmt.Errorf("unable to touch session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to read affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}
	// Nothing updated: either the stored time is already newer or the
	// session is gone.
	return s.checkActivePrincipal(ctx, principal)
}

// ClearSession removes every stored session, ended ones included, so no
// principal or role survives a logout.
func (s *Service) ClearSession(ctx context.Context) error {
	res, err := s.db.ExecContext(ctx, queryDeleteSessions)
	if err != nil {
		return fmt.Errorf("unable to clear session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		zap.L().Info("Session cleared", zap.Int64("rows", n))
	}
	return nil
}

func (s *Service) expectUpdated(ctx context.Context, res sql.Result, principal string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to read affected rows: %w", err)
	}
	if n == 0 {
		return s.checkActivePrincipal(ctx, principal)
	}
	return nil
}

func (s *Service) checkActivePrincipal(ctx context.Context, principal string) error {
	var active string
	err := s.db.QueryRowContext(ctx, queryGetActivePrincipal).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNoSession
	}
	if err != nil {
		return fmt.Errorf("unable to query active session: %w", err)
	}
	if active != principal {
		return store.ErrSessionMismatch
	}
	return nil
}
