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
	"github.com/shopspring/decimal"
)

// FeeBreakdown summarizes the billing state of an engagement
type FeeBreakdown struct {
	TotalBilled    uint64          `json:"totalBilled"`
	Pending        uint64          `json:"pending"`
	Approved       uint64          `json:"approved"`
	HoursLogged    decimal.Decimal `json:"hoursLogged"`
	ApprovedHours  decimal.Decimal `json:"approvedHours"`
	PendingEntries int             `json:"pendingEntries"`
	EscrowBalance  uint64          `json:"escrowBalance"`
}

// DashboardStats are the totals shown above the engagement list
type DashboardStats struct {
	ActiveEngagements int             `json:"activeEngagements"`
	PendingApprovals  int             `json:"pendingApprovals"`
	TotalEscrow       uint64          `json:"totalEscrow"`
	TotalSpent        uint64          `json:"totalSpent"`
	HoursLogged       decimal.Decimal `json:"hoursLogged"`
}

// Dashboard is everything the signed-in user sees on their landing view
type Dashboard struct {
	Principal   string         `json:"principal"`
	Role        Role           `json:"role"`
	DisplayName string         `json:"displayName"`
	Stats       DashboardStats `json:"stats"`
	Engagements []Engagement   `json:"engagements"`
	Lawyer      *LawyerProfile `json:"lawyer,omitempty"`
	Client      *ClientProfile `json:"client,omitempty"`
}

// ByStatus returns the engagements with the given status, in load order
func (d Dashboard) ByStatus(status EngagementStatus) []Engagement {
	var out []Engagement
	for _, e := range d.Engagements {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

// EngagementDetail is an engagement plus the values derived for the viewer
type EngagementDetail struct {
	Engagement     Engagement     `json:"engagement"`
	ViewerRole     Role           `json:"viewerRole"`
	OtherPartyName string         `json:"otherPartyName"`
	Fees           FeeBreakdown   `json:"fees"`
	Transactions   []Transaction  `json:"transactions,omitempty"`
	Escrow         *EscrowAccount `json:"escrow,omitempty"`
}

// PendingEntries returns the time entries awaiting client approval
func (d EngagementDetail) PendingEntries() []TimeEntry {
	var out []TimeEntry
	for _, t := range d.Engagement.TimeEntries {
		if !t.Approved {
			out = append(out, t)
		}
	}
	return out
}
