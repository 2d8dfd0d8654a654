package schema

import (
	"errors"
	"strings"
	"testing"

	"legal-fee-tracker-go/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func validLawyer() models.CreateLawyerProfile {
	return models.CreateLawyerProfile{
		Name:            "Jane Doe",
		Email:           "jane@x.com",
		WalletAddress:   "abc",
		Bio:             "1234567890",
		Jurisdiction:    "NY",
		Specializations: []string{"Contract Law"},
	}
}

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected *ValidationError, got %v", err)
	return ve.Fields()
}

func TestValidateCreateLawyerProfile_AcceptsMinimalInput(t *testing.T) {
	t.Parallel()

	out, err := ValidateCreateLawyerProfile(validLawyer())
	require.NoError(t, err)
	if diff := cmp.Diff(validLawyer(), out); diff != "" {
		t.Errorf("normalized profile mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateCreateLawyerProfile_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*models.CreateLawyerProfile)
		field  string
	}{
		{"empty name", func(p *models.CreateLawyerProfile) { p.Name = "" }, "name"},
		{"whitespace name", func(p *models.CreateLawyerProfile) { p.Name = "   " }, "name"},
		{"malformed email", func(p *models.CreateLawyerProfile) { p.Email = "jane@" }, "email"},
		{"email without tld", func(p *models.CreateLawyerProfile) { p.Email = "jane@x" }, "email"},
		{"empty wallet", func(p *models.CreateLawyerProfile) { p.WalletAddress = "" }, "wallet_address"},
		{"bio of 9 characters", func(p *models.CreateLawyerProfile) { p.Bio = "123456789" }, "bio"},
		{"bio padded to 10 with spaces", func(p *models.CreateLawyerProfile) { p.Bio = " 12345678 " }, "bio"},
		{"empty jurisdiction", func(p *models.CreateLawyerProfile) { p.Jurisdiction = "" }, "jurisdiction"},
		{"no specializations", func(p *models.CreateLawyerProfile) { p.Specializations = nil }, "specializations"},
		{"blank specializations only", func(p *models.CreateLawyerProfile) { p.Specializations = []string{" ", ""} }, "specializations"},
		{"zero hourly rate", func(p *models.CreateLawyerProfile) { p.HourlyRate = ptr(uint64(0)) }, "hourly_rate"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := validLawyer()
			tt.mutate(&in)

			_, err := ValidateCreateLawyerProfile(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			assert.Equal(t, []string{tt.field}, fieldsOf(t, err))
		})
	}
}

func TestValidateCreateLawyerProfile_ReportsEveryViolation(t *testing.T) {
	t.Parallel()

	_, err := ValidateCreateLawyerProfile(models.CreateLawyerProfile{
		Email:      "not-an-email",
		Bio:        "short",
		HourlyRate: ptr(uint64(0)),
	})
	require.Error(t, err)
	assert.Equal(t,
		[]string{"name", "email", "wallet_address", "bio", "jurisdiction", "specializations", "hourly_rate"},
		fieldsOf(t, err))
}

func TestValidateCreateLawyerProfile_Normalizes(t *testing.T) {
	t.Parallel()

	in := validLawyer()
	in.Name = "  Jane Doe "
	in.Email = " Jane@X.com "
	in.Specializations = []string{" Contract Law", "Contract Law", "", "IP "}
	in.HourlyRate = ptr(uint64(250_000_000))

	out, err := ValidateCreateLawyerProfile(in)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", out.Name)
	assert.Equal(t, "jane@x.com", out.Email)
	assert.Equal(t, []string{"Contract Law", "IP"}, out.Specializations)
	require.NotNil(t, out.HourlyRate)
	assert.Equal(t, uint64(250_000_000), *out.HourlyRate)
}

func TestValidateCreateLawyerProfile_Idempotent(t *testing.T) {
	t.Parallel()

	in := validLawyer()
	in.Email = " jane@x.com "
	in.Bio = "  Ten years of commercial practice.  "
	in.Specializations = []string{"Contract Law", " Contract Law ", "Tax"}

	first, err := ValidateCreateLawyerProfile(in)
	require.NoError(t, err)
	second, err := ValidateCreateLawyerProfile(first)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second pass changed the profile (-first +second):\n%s", diff)
	}
}

func TestValidateCreateClientProfile(t *testing.T) {
	t.Parallel()

	out, err := ValidateCreateClientProfile(models.CreateClientProfile{
		Name: " Acme Corp ", Email: "Legal@Acme.io", WalletAddress: "w-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", out.Name)
	assert.Equal(t, "legal@acme.io", out.Email)

	_, err = ValidateCreateClientProfile(models.CreateClientProfile{})
	require.Error(t, err)
	assert.Equal(t, []string{"name", "email", "wallet_address"}, fieldsOf(t, err))

	again, err := ValidateCreateClientProfile(out)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestValidateLawyerProfile_RatingBounds(t *testing.T) {
	t.Parallel()

	p := models.LawyerProfile{
		Principal:       "p1",
		Name:            "Jane",
		Email:           "jane@x.com",
		Jurisdiction:    "NY",
		Specializations: []string{"Tax"},
		Rating:          5,
	}
	require.NoError(t, ValidateLawyerProfile(p))

	p.Rating = 5.1
	assert.Equal(t, []string{"rating"}, fieldsOf(t, ValidateLawyerProfile(p)))

	p.Rating = -0.1
	p.Specializations = nil
	p.TotalEngagements, p.CompletedEngagements = 1, 2
	assert.Equal(t, []string{"specializations", "rating", "completed_engagements"}, fieldsOf(t, ValidateLawyerProfile(p)))
}

func TestValidateClientProfile(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateClientProfile(models.ClientProfile{Principal: "p2", Name: "Acme", Email: "a@acme.io"}))
	assert.Equal(t, []string{"principal", "name", "email"}, fieldsOf(t, ValidateClientProfile(models.ClientProfile{})))
}

func TestValidateLawyerSearchFilters(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateLawyerSearchFilters(models.LawyerSearchFilters{}))
	require.NoError(t, ValidateLawyerSearchFilters(models.LawyerSearchFilters{MinRate: ptr(uint64(1)), MaxRate: ptr(uint64(1))}))

	err := ValidateLawyerSearchFilters(models.LawyerSearchFilters{
		MinRate:   ptr(uint64(10)),
		MaxRate:   ptr(uint64(5)),
		MinRating: ptr(6.0),
	})
	assert.Equal(t, []string{"min_rate", "min_rating"}, fieldsOf(t, err))
}

func TestValidationError_Message(t *testing.T) {
	t.Parallel()

	single := NewValidationError("name", "required")
	assert.Equal(t, "validation: name: required", single.Error())

	_, err := ValidateCreateClientProfile(models.CreateClientProfile{Name: "x"})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "validation: 2 errors"))
}
