package schema

import (
	"strings"
	"unicode/utf8"

	"legal-fee-tracker-go/internal/models"

	"github.com/shopspring/decimal"
)

const (
	maxEntryDescription = 1000
	maxMessageLength    = 5000
)

var maxHoursPerEntry = decimal.NewFromInt(24)

// ValidateTimeEntry normalizes and validates a time entry before it is logged.
func ValidateTimeEntry(in models.NewTimeEntry) (models.NewTimeEntry, error) {
	out := models.NewTimeEntry{
		EngagementId: strings.TrimSpace(in.EngagementId),
		Description:  strings.TrimSpace(in.Description),
		Hours:        in.Hours,
	}

	var c collector
	if out.EngagementId == "" {
		c.add("engagement_id", "required")
	}
	if out.Description == "" {
		c.add("description", "required")
	} else if utf8.RuneCountInString(out.Description) > maxEntryDescription {
		c.add("description", "too long")
	}
	if !out.Hours.IsPositive() {
		c.add("hours", "must be positive")
	} else if out.Hours.GreaterThan(maxHoursPerEntry) {
		c.add("hours", "must be at most 24")
	}

	if err := c.err(); err != nil {
		return models.NewTimeEntry{}, err
	}
	return out, nil
}

// ValidateTransaction checks the shape of an escrow transaction.
func ValidateTransaction(tx models.Transaction) error {
	var c collector
	if tx.EngagementId == "" {
		c.add("engagement_id", "required")
	}
	if tx.From == "" {
		c.add("from", "required")
	}
	if tx.To == "" {
		c.add("to", "required")
	}
	if tx.Amount == 0 {
		c.add("amount", "must be positive")
	}
	if !tx.TxType.IsValid() {
		c.add("tx_type", "invalid transaction type")
	}
	return c.err()
}

// ValidateMessage normalizes and validates a message before it is sent.
func ValidateMessage(in models.NewMessage) (models.NewMessage, error) {
	out := models.NewMessage{
		EngagementId: strings.TrimSpace(in.EngagementId),
		Content:      strings.TrimSpace(in.Content),
	}

	var c collector
	if out.EngagementId == "" {
		c.add("engagement_id", "required")
	}
	if out.Content == "" {
		c.add("content", "required")
	} else if utf8.RuneCountInString(out.Content) > maxMessageLength {
		c.add("content", "too long")
	}

	if err := c.err(); err != nil {
		return models.NewMessage{}, err
	}
	return out, nil
}
