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

// LawyerProfile is a registered lawyer as returned by the backend
type LawyerProfile struct {
	Principal            string   `json:"principal"`
	Name                 string   `json:"name"`
	Email                string   `json:"email"`
	WalletAddress        string   `json:"walletAddress"`
	Bio                  string   `json:"bio"`
	Jurisdiction         string   `json:"jurisdiction"`
	Specializations      []string `json:"specializations"`
	HourlyRate           *uint64  `json:"hourlyRate,omitempty"`
	Verified             bool     `json:"verified"`
	Rating               float64  `json:"rating"`
	ReviewCount          uint64   `json:"reviewCount"`
	TotalEngagements     uint64   `json:"totalEngagements"`
	CompletedEngagements uint64   `json:"completedEngagements"`
	CreatedAt            int64    `json:"createdAt"`
	UpdatedAt            int64    `json:"updatedAt"`
}

// ClientProfile is a registered client as returned by the backend
type ClientProfile struct {
	Principal            string  `json:"principal"`
	Name                 string  `json:"name"`
	Email                string  `json:"email"`
	WalletAddress        string  `json:"walletAddress"`
	Rating               float64 `json:"rating"`
	ReviewCount          uint64  `json:"reviewCount"`
	TotalEngagements     uint64  `json:"totalEngagements"`
	CompletedEngagements uint64  `json:"completedEngagements"`
	CreatedAt            int64   `json:"createdAt"`
	UpdatedAt            int64   `json:"updatedAt"`
}

// CreateLawyerProfile holds the fields collected when a lawyer registers
type CreateLawyerProfile struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	WalletAddress   string   `json:"walletAddress"`
	Bio             string   `json:"bio"`
	Jurisdiction    string   `json:"jurisdiction"`
	Specializations []string `json:"specializations"`
	HourlyRate      *uint64  `json:"hourlyRate,omitempty"`
}

// CreateClientProfile holds the fields collected when a client registers
type CreateClientProfile struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	WalletAddress string `json:"walletAddress"`
}

// LawyerSearchFilters narrows the lawyer directory. Nil fields do not filter.
type LawyerSearchFilters struct {
	Specialization string   `json:"specialization,omitempty"`
	Jurisdiction   string   `json:"jurisdiction,omitempty"`
	MinRate        *uint64  `json:"minRate,omitempty"`
	MaxRate        *uint64  `json:"maxRate,omitempty"`
	MinRating      *float64 `json:"minRating,omitempty"`
}
