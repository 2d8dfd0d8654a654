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

import (
	"encoding/json"
	"fmt"
)

// Role is the resolved role of the signed-in principal. The zero value means
// the role has not been resolved yet.
type Role string

const (
	RoleLawyer Role = "Lawyer"
	RoleClient Role = "Client"
)

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool {
	return r == RoleLawyer || r == RoleClient
}

// UserType is what the backend reports for a principal. The zero value means
// the principal has not registered any profile.
type UserType string

const (
	UserTypeLawyer UserType = "Lawyer"
	UserTypeClient UserType = "Client"
	UserTypeBoth   UserType = "Both"
)

func (u UserType) String() string { return string(u) }

func (u UserType) IsValid() bool {
	switch u {
	case UserTypeLawyer, UserTypeClient, UserTypeBoth:
		return true
	}
	return false
}

// EngagementStatus is the lifecycle status of an engagement.
type EngagementStatus string

const (
	EngagementActive    EngagementStatus = "Active"
	EngagementPending   EngagementStatus = "Pending"
	EngagementCompleted EngagementStatus = "Completed"
	EngagementCancelled EngagementStatus = "Cancelled"
	EngagementDisputed  EngagementStatus = "Disputed"
	EngagementPaused    EngagementStatus = "Paused"
)

func (s EngagementStatus) String() string { return string(s) }

func (s EngagementStatus) IsValid() bool {
	switch s {
	case EngagementActive, EngagementPending, EngagementCompleted,
		EngagementCancelled, EngagementDisputed, EngagementPaused:
		return true
	}
	return false
}

func (s *EngagementStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, (*string)(s), "engagement status", func() bool { return s.IsValid() })
}

// MilestoneStatus is the status of a single milestone.
type MilestoneStatus string

const (
	MilestonePending   MilestoneStatus = "Pending"
	MilestoneCompleted MilestoneStatus = "Completed"
	MilestoneApproved  MilestoneStatus = "Approved"
	MilestonePaid      MilestoneStatus = "Paid"
	MilestoneDisputed  MilestoneStatus = "Disputed"
)

func (s MilestoneStatus) String() string { return string(s) }

func (s MilestoneStatus) IsValid() bool {
	switch s {
	case MilestonePending, MilestoneCompleted, MilestoneApproved, MilestonePaid, MilestoneDisputed:
		return true
	}
	return false
}

func (s *MilestoneStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, (*string)(s), "milestone status", func() bool { return s.IsValid() })
}

// TransactionType classifies a money movement between escrow and a party.
type TransactionType string

const (
	TransactionDeposit TransactionType = "Deposit"
	TransactionRelease TransactionType = "Release"
	TransactionRefund  TransactionType = "Refund"
	TransactionDispute TransactionType = "Dispute"
)

func (t TransactionType) String() string { return string(t) }

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionDeposit, TransactionRelease, TransactionRefund, TransactionDispute:
		return true
	}
	return false
}

func (t *TransactionType) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, (*string)(t), "transaction type", func() bool { return t.IsValid() })
}

func unmarshalEnum(data []byte, dst *string, kind string, valid func() bool) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid %s: %w", kind, err)
	}
	*dst = raw
	if !valid() {
		return fmt.Errorf("unknown %s %q", kind, raw)
	}
	return nil
}
