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

package models

import "time"

// AuthState is the lifecycle state of the session context
type AuthState int

const (
	StateUnauthenticated AuthState = iota
	StateAuthenticating
	StateAuthenticated
)

func (s AuthState) String() string {
	switch s {
	case StateUnauthenticated:
		return "Unauthenticated"
	case StateAuthenticating:
		return "Authenticating"
	case StateAuthenticated:
		return "Authenticated"
	default:
		return "Unknown"
	}
}

// Session is a point-in-time copy of who is using the application
type Session struct {
	State        AuthState `json:"state"`
	Principal    string    `json:"principal,omitempty"`
	Role         Role      `json:"role,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
	LastActiveAt time.Time `json:"lastActiveAt,omitempty"`
}

func (s Session) IsAuthenticated() bool {
	return s.State == StateAuthenticated
}

// ResolvedRole reports the role only when the session is authenticated and
// the role lookup has completed.
func (s Session) ResolvedRole() (Role, bool) {
	if !s.IsAuthenticated() || !s.Role.IsValid() {
		return "", false
	}
	return s.Role, true
}
