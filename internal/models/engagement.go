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
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// FeeKind names the variant of an engagement's fee arrangement
type FeeKind string

const (
	FeeHourly    FeeKind = "Hourly"
	FeeFixed     FeeKind = "FixedFee"
	FeeMilestone FeeKind = "Milestone"
)

// EngagementType is the closed set of fee arrangements: HourlyFee, FixedFee
// and MilestoneFee are its only implementations.
type EngagementType interface {
	Kind() FeeKind
	isEngagementType()
}

type HourlyFee struct {
	Rate uint64 `json:"rate"`
}

type FixedFee struct {
	Amount uint64 `json:"amount"`
}

type MilestoneFee struct {
	Milestones []Milestone `json:"milestones"`
}

func (HourlyFee) Kind() FeeKind    { return FeeHourly }
func (FixedFee) Kind() FeeKind     { return FeeFixed }
func (MilestoneFee) Kind() FeeKind { return FeeMilestone }

func (HourlyFee) isEngagementType()    {}
func (FixedFee) isEngagementType()     {}
func (MilestoneFee) isEngagementType() {}

// Total returns the sum of all milestone amounts
func (m MilestoneFee) Total() uint64 {
	var total uint64
	for _, ms := range m.Milestones {
		total += ms.Amount
	}
	return total
}

// FeeArrangement carries an EngagementType through JSON using the
// {"type": "Hourly", "rate": 250} shape.
type FeeArrangement struct {
	EngagementType
}

func (f FeeArrangement) MarshalJSON() ([]byte, error) {
	switch v := f.EngagementType.(type) {
	case nil:
		return []byte("null"), nil
	case HourlyFee:
		return json.Marshal(struct {
			Type FeeKind `json:"type"`
			HourlyFee
		}{FeeHourly, v})
	case FixedFee:
		return json.Marshal(struct {
			Type FeeKind `json:"type"`
			FixedFee
		}{FeeFixed, v})
	case MilestoneFee:
		return json.Marshal(struct {
			Type FeeKind `json:"type"`
			MilestoneFee
		}{FeeMilestone, v})
	default:
		return nil, fmt.Errorf("unsupported engagement type %T", v)
	}
}

func (f *FeeArrangement) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.EngagementType = nil
		return nil
	}

	var head struct {
		Type FeeKind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("invalid engagement type: %w", err)
	}

	switch head.Type {
	case FeeHourly:
		var v HourlyFee
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("invalid hourly engagement: %w", err)
		}
		f.EngagementType = v
	case FeeFixed:
		var v FixedFee
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("invalid fixed fee engagement: %w", err)
		}
		f.EngagementType = v
	case FeeMilestone:
		var v MilestoneFee
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("invalid milestone engagement: %w", err)
		}
		f.EngagementType = v
	default:
		return fmt.Errorf("unknown engagement type %q", head.Type)
	}
	return nil
}

// Milestone is one deliverable of a milestone-based engagement
type Milestone struct {
	Id          uint64          `json:"id"`
	Description string          `json:"description"`
	Amount      uint64          `json:"amount"`
	DueDate     *int64          `json:"dueDate,omitempty"`
	Status      MilestoneStatus `json:"status"`
	CompletedAt *int64          `json:"completedAt,omitempty"`
}

// TimeEntry is a billable unit of work logged by the lawyer
type TimeEntry struct {
	Id              uint64          `json:"id"`
	LawyerPrincipal string          `json:"lawyerPrincipal"`
	Hours           decimal.Decimal `json:"hours"`
	Rate            uint64          `json:"rate"`
	Description     string          `json:"description"`
	Timestamp       int64           `json:"timestamp"`
	Approved        bool            `json:"approved"`
}

// Amount returns hours * rate rounded to the smallest unit
func (t TimeEntry) Amount() uint64 {
	billed := t.Hours.Mul(decimal.NewFromInt(int64(t.Rate))).Round(0)
	if billed.IsNegative() {
		return 0
	}
	return uint64(billed.IntPart())
}

// NewTimeEntry holds the fields a lawyer submits to log work
type NewTimeEntry struct {
	EngagementId string          `json:"engagementId"`
	Description  string          `json:"description"`
	Hours        decimal.Decimal `json:"hours"`
}

// Document is metadata for a file shared within an engagement
type Document struct {
	Id          uint64 `json:"id"`
	Name        string `json:"name"`
	ContentHash string `json:"contentHash"`
	FileSize    uint64 `json:"fileSize"`
	UploadedBy  string `json:"uploadedBy"`
	Timestamp   int64  `json:"timestamp"`
}

// Message is a note exchanged between the engagement parties
type Message struct {
	Id        uint64 `json:"id"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// NewMessage holds the fields submitted to post a message
type NewMessage struct {
	EngagementId string `json:"engagementId"`
	Content      string `json:"content"`
}

// Engagement is a tracked legal-services arrangement between a lawyer and a client
type Engagement struct {
	Id             string           `json:"id"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Lawyer         string           `json:"lawyer"`
	Client         string           `json:"client"`
	EngagementType FeeArrangement   `json:"engagementType"`
	Status         EngagementStatus `json:"status"`
	EscrowAmount   uint64           `json:"escrowAmount"`
	SpentAmount    uint64           `json:"spentAmount"`
	TimeEntries    []TimeEntry      `json:"timeEntries"`
	Documents      []Document       `json:"documents"`
	Messages       []Message        `json:"messages"`
	CreatedAt      int64            `json:"createdAt"`
	UpdatedAt      int64            `json:"updatedAt"`
	CompletedAt    *int64           `json:"completedAt,omitempty"`
}

// EscrowBalance returns escrowAmount - spentAmount, or zero when the record
// violates spentAmount <= escrowAmount.
func (e Engagement) EscrowBalance() uint64 {
	if e.SpentAmount > e.EscrowAmount {
		return 0
	}
	return e.EscrowAmount - e.SpentAmount
}

// CreateEngagement holds the fields collected by the engagement creation form
type CreateEngagement struct {
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Lawyer         string         `json:"lawyer"`
	Client         string         `json:"client"`
	EngagementType FeeArrangement `json:"engagementType"`
	EscrowAmount   uint64         `json:"escrowAmount"`
}
