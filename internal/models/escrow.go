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

// Transaction records a money movement between escrow and a party.
// Transactions are immutable once the backend has created them.
type Transaction struct {
	Id           uint64          `json:"id"`
	EngagementId string          `json:"engagementId"`
	From         string          `json:"from"`
	To           string          `json:"to"`
	Amount       uint64          `json:"amount"`
	TxType       TransactionType `json:"txType"`
	Memo         string          `json:"memo"`
	Timestamp    int64           `json:"timestamp"`
	BlockIndex   *uint64         `json:"blockIndex,omitempty"`
}

// EscrowAccount is the backend's view of funds held for one engagement
type EscrowAccount struct {
	EngagementId   string   `json:"engagementId"`
	Client         string   `json:"client"`
	Lawyer         string   `json:"lawyer"`
	Balance        uint64   `json:"balance"`
	TotalDeposited uint64   `json:"totalDeposited"`
	TotalReleased  uint64   `json:"totalReleased"`
	TotalRefunded  uint64   `json:"totalRefunded"`
	Transactions   []uint64 `json:"transactions"`
	CreatedAt      int64    `json:"createdAt"`
	UpdatedAt      int64    `json:"updatedAt"`
}
