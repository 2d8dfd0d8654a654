package schema

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"legal-fee-tracker-go/internal/models"
)

const (
	minBioLength  = 10
	maxNameLength = 255
	maxBioLength  = 5000
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateCreateLawyerProfile normalizes and validates a lawyer registration.
func ValidateCreateLawyerProfile(in models.CreateLawyerProfile) (models.CreateLawyerProfile, error) {
	out := models.CreateLawyerProfile{
		Name:            strings.TrimSpace(in.Name),
		Email:           normalizeEmail(in.Email),
		WalletAddress:   strings.TrimSpace(in.WalletAddress),
		Bio:             strings.TrimSpace(in.Bio),
		Jurisdiction:    strings.TrimSpace(in.Jurisdiction),
		Specializations: normalizeList(in.Specializations),
		HourlyRate:      in.HourlyRate,
	}

	var c collector
	checkName(&c, out.Name)
	checkEmail(&c, out.Email)
	checkWallet(&c, out.WalletAddress)

	switch n := utf8.RuneCountInString(out.Bio); {
	case n < minBioLength:
		c.add("bio", "must be at least 10 characters")
	case n > maxBioLength:
		c.add("bio", "too long")
	}

	if out.Jurisdiction == "" {
		c.add("jurisdiction", "required")
	}
	if len(out.Specializations) == 0 {
		c.add("specializations", "at least one specialization required")
	}
	if out.HourlyRate != nil && *out.HourlyRate == 0 {
		c.add("hourly_rate", "must be positive")
	}

	if err := c.err(); err != nil {
		return models.CreateLawyerProfile{}, err
	}
	return out, nil
}

// ValidateCreateClientProfile normalizes and validates a client registration.
func ValidateCreateClientProfile(in models.CreateClientProfile) (models.CreateClientProfile, error) {
	out := models.CreateClientProfile{
		Name:          strings.TrimSpace(in.Name),
		Email:         normalizeEmail(in.Email),
		WalletAddress: strings.TrimSpace(in.WalletAddress),
	}

	var c collector
	checkName(&c, out.Name)
	checkEmail(&c, out.Email)
	checkWallet(&c, out.WalletAddress)

	if err := c.err(); err != nil {
		return models.CreateClientProfile{}, err
	}
	return out, nil
}

// ValidateLawyerProfile checks a full lawyer record as loaded from the backend.
func ValidateLawyerProfile(p models.LawyerProfile) error {
	var c collector
	if p.Principal == "" {
		c.add("principal", "required")
	}
	checkName(&c, p.Name)
	checkEmail(&c, p.Email)
	if p.Jurisdiction == "" {
		c.add("jurisdiction", "required")
	}
	if len(p.Specializations) == 0 {
		c.add("specializations", "at least one specialization required")
	}
	if p.HourlyRate != nil && *p.HourlyRate == 0 {
		c.add("hourly_rate", "must be positive")
	}
	checkReputation(&c, p.Rating, p.TotalEngagements, p.CompletedEngagements)
	return c.err()
}

// ValidateClientProfile checks a full client record as loaded from the backend.
func ValidateClientProfile(p models.ClientProfile) error {
	var c collector
	if p.Principal == "" {
		c.add("principal", "required")
	}
	checkName(&c, p.Name)
	checkEmail(&c, p.Email)
	checkReputation(&c, p.Rating, p.TotalEngagements, p.CompletedEngagements)
	return c.err()
}

// ValidateLawyerSearchFilters checks the ranges of a directory search.
func ValidateLawyerSearchFilters(f models.LawyerSearchFilters) error {
	var c collector
	if f.MinRate != nil && f.MaxRate != nil && *f.MinRate > *f.MaxRate {
		c.add("min_rate", "must not exceed max_rate")
	}
	if f.MinRating != nil && (*f.MinRating < 0 || *f.MinRating > 5) {
		c.add("min_rating", "must be between 0 and 5")
	}
	return c.err()
}

func checkName(c *collector, name string) {
	if name == "" {
		c.add("name", "required")
	} else if utf8.RuneCountInString(name) > maxNameLength {
		c.add("name", "too long")
	}
}

func checkEmail(c *collector, email string) {
	if !emailRegex.MatchString(email) {
		c.add("email", "valid email is required")
	}
}

func checkWallet(c *collector, wallet string) {
	if wallet == "" {
		c.add("wallet_address", "required")
	}
}

func checkReputation(c *collector, rating float64, total, completed uint64) {
	if rating < 0 || rating > 5 {
		c.add("rating", "must be between 0 and 5")
	}
	if completed > total {
		c.add("completed_engagements", "must not exceed total_engagements")
	}
}

// normalizeList trims entries, drops blanks and duplicates, keeping order.
func normalizeList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
