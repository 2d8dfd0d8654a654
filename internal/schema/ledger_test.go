package schema

import (
	"strings"
	"testing"

	"legal-fee-tracker-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTimeEntry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     models.NewTimeEntry
		fields []string
	}{
		{
			name: "valid fractional hours",
			in:   models.NewTimeEntry{EngagementId: "e1", Description: "Drafted revisions", Hours: decimal.RequireFromString("3.5")},
		},
		{
			name: "full day",
			in:   models.NewTimeEntry{EngagementId: "e1", Description: "Trial", Hours: decimal.NewFromInt(24)},
		},
		{
			name:   "zero hours",
			in:     models.NewTimeEntry{EngagementId: "e1", Description: "Call", Hours: decimal.Zero},
			fields: []string{"hours"},
		},
		{
			name:   "negative hours",
			in:     models.NewTimeEntry{EngagementId: "e1", Description: "Call", Hours: decimal.NewFromInt(-1)},
			fields: []string{"hours"},
		},
		{
			name:   "more than a day",
			in:     models.NewTimeEntry{EngagementId: "e1", Description: "Call", Hours: decimal.RequireFromString("24.25")},
			fields: []string{"hours"},
		},
		{
			name:   "everything missing",
			in:     models.NewTimeEntry{Description: "   "},
			fields: []string{"engagement_id", "description", "hours"},
		},
		{
			name:   "description too long",
			in:     models.NewTimeEntry{EngagementId: "e1", Description: strings.Repeat("a", 1001), Hours: decimal.NewFromInt(1)},
			fields: []string{"description"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ValidateTimeEntry(tt.in)
			if tt.fields == nil {
				require.NoError(t, err)
				return
			}
			assert.Equal(t, tt.fields, fieldsOf(t, err))
		})
	}
}

func TestValidateTransaction(t *testing.T) {
	t.Parallel()

	tx := models.Transaction{EngagementId: "e1", From: "p2", To: "escrow", Amount: 10, TxType: models.TransactionDeposit}
	require.NoError(t, ValidateTransaction(tx))

	assert.Equal(t,
		[]string{"engagement_id", "from", "to", "amount", "tx_type"},
		fieldsOf(t, ValidateTransaction(models.Transaction{TxType: "Withdraw"})))
}

func TestValidateMessage(t *testing.T) {
	t.Parallel()

	out, err := ValidateMessage(models.NewMessage{EngagementId: " e1 ", Content: "  Please review the draft.  "})
	require.NoError(t, err)
	assert.Equal(t, models.NewMessage{EngagementId: "e1", Content: "Please review the draft."}, out)

	_, err = ValidateMessage(models.NewMessage{EngagementId: "e1", Content: " \n "})
	assert.Equal(t, []string{"content"}, fieldsOf(t, err))
}
