package schema

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"legal-fee-tracker-go/internal/models"
)

const minDescriptionLength = 10

// ValidateCreateEngagement normalizes and validates the engagement creation form.
func ValidateCreateEngagement(in models.CreateEngagement) (models.CreateEngagement, error) {
	out := models.CreateEngagement{
		Title:          strings.TrimSpace(in.Title),
		Description:    strings.TrimSpace(in.Description),
		Lawyer:         strings.TrimSpace(in.Lawyer),
		Client:         strings.TrimSpace(in.Client),
		EngagementType: models.FeeArrangement{EngagementType: normalizeEngagementType(in.EngagementType.EngagementType)},
		EscrowAmount:   in.EscrowAmount,
	}

	var c collector
	if out.Title == "" {
		c.add("title", "required")
	} else if utf8.RuneCountInString(out.Title) > maxNameLength {
		c.add("title", "too long")
	}
	if utf8.RuneCountInString(out.Description) < minDescriptionLength {
		c.add("description", "must be at least 10 characters")
	}
	if out.Lawyer != "" && out.Lawyer == out.Client {
		c.add("client", "must differ from lawyer")
	}
	checkEngagementType(&c, out.EngagementType.EngagementType)
	if out.EscrowAmount == 0 {
		c.add("escrow_amount", "must be positive")
	}

	if err := c.err(); err != nil {
		return models.CreateEngagement{}, err
	}
	return out, nil
}

// ValidateEngagementType checks that exactly one fee variant is present and
// that its required amounts are positive.
func ValidateEngagementType(t models.EngagementType) error {
	var c collector
	checkEngagementType(&c, t)
	return c.err()
}

// ValidateMilestone checks a single milestone.
func ValidateMilestone(m models.Milestone) error {
	var c collector
	if strings.TrimSpace(m.Description) == "" {
		c.add("description", "required")
	}
	if m.Amount == 0 {
		c.add("amount", "must be positive")
	}
	if !m.Status.IsValid() {
		c.add("status", "invalid status")
	}
	return c.err()
}

// ValidateEngagement checks a full engagement record as loaded from the backend.
func ValidateEngagement(e models.Engagement) error {
	var c collector
	if e.Id == "" {
		c.add("id", "required")
	}
	if e.Title == "" {
		c.add("title", "required")
	}
	if e.Lawyer == "" {
		c.add("lawyer", "required")
	}
	if e.Client == "" {
		c.add("client", "required")
	}
	if e.Lawyer != "" && e.Lawyer == e.Client {
		c.add("client", "must differ from lawyer")
	}
	if !e.Status.IsValid() {
		c.add("status", "invalid status")
	}
	checkEngagementType(&c, e.EngagementType.EngagementType)
	if e.SpentAmount > e.EscrowAmount {
		c.add("spent_amount", "must not exceed escrow_amount")
	}
	for i, t := range e.TimeEntries {
		if !t.Hours.IsPositive() {
			c.add(fmt.Sprintf("time_entries[%d].hours", i), "must be positive")
		}
	}
	return c.err()
}

func checkEngagementType(c *collector, t models.EngagementType) {
	switch v := t.(type) {
	case nil:
		c.add("engagement_type", "required")
	case models.HourlyFee:
		if v.Rate == 0 {
			c.add("engagement_type.rate", "must be positive")
		}
	case models.FixedFee:
		if v.Amount == 0 {
			c.add("engagement_type.amount", "must be positive")
		}
	case models.MilestoneFee:
		if len(v.Milestones) == 0 {
			c.add("engagement_type.milestones", "at least one milestone required")
		}
		for i, m := range v.Milestones {
			c.merge(fmt.Sprintf("engagement_type.milestones[%d]", i), ValidateMilestone(m))
		}
	default:
		c.add("engagement_type", fmt.Sprintf("unsupported variant %T", v))
	}
}

// normalizeEngagementType trims milestone descriptions and defaults new
// milestones to Pending.
func normalizeEngagementType(t models.EngagementType) models.EngagementType {
	v, ok := t.(models.MilestoneFee)
	if !ok {
		return t
	}
	milestones := make([]models.Milestone, len(v.Milestones))
	for i, m := range v.Milestones {
		m.Description = strings.TrimSpace(m.Description)
		if m.Status == "" {
			m.Status = models.MilestonePending
		}
		milestones[i] = m
	}
	return models.MilestoneFee{Milestones: milestones}
}
