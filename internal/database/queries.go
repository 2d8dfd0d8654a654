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

const (
	querySchema = `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		principal TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL,
		last_active_at TIMESTAMP NOT NULL,
		ended_at TIMESTAMP
	);

	-- At most one active session
	CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_active ON sessions(active) WHERE active = 1;
	CREATE INDEX IF NOT EXISTS idx_sessions_principal ON sessions(principal);
	`

	queryGetActiveSession = `
		SELECT id, principal, role, created_at, last_active_at
		FROM sessions
		WHERE active = 1`

	queryEndActiveSessions = `
		UPDATE sessions
		SET active = 0, ended_at = ?
		WHERE active = 1`

	queryDeleteSessions = `
		DELETE FROM sessions`

	queryInsertSession = `
		INSERT INTO sessions (id, principal, role, active, created_at, last_active_at)
		VALUES (?, ?, ?, 1, ?, ?)`

	queryUpdateSessionRole = `
		UPDATE sessions
		SET role = ?
		WHERE active = 1 AND principal = ?`

	queryTouchSession = `
		UPDATE sessions
		SET last_active_at = ?
		WHERE active = 1 AND principal = ? AND last_active_at < ?`

	queryGetActivePrincipal = `
		SELECT principal
		FROM sessions
		WHERE active = 1`
)
