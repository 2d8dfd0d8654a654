package main

import (
	"errors"
	"fmt"
	"strings"

	"legal-fee-tracker-go/internal/common"
	"legal-fee-tracker-go/internal/models"
	"legal-fee-tracker-go/internal/schema"
)

// optionalAmount parses a USD flag value; an empty value means unset.
func optionalAmount(field, value string) (*uint64, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	amount, err := common.ParseCurrency(value)
	if err != nil {
		return nil, schema.NewValidationError(field, err.Error())
	}
	return &amount, nil
}

func requiredAmount(field, value string) (uint64, error) {
	amount, err := optionalAmount(field, value)
	if err != nil {
		return 0, err
	}
	if amount == nil {
		return 0, schema.NewValidationError(field, "required")
	}
	return *amount, nil
}

// parseFeeArrangement builds the fee variant from the create flags. Exactly
// one of the three must be given.
func parseFeeArrangement(hourly, fixed string, milestones []string) (models.EngagementType, error) {
	set := 0
	for _, given := range []bool{strings.TrimSpace(hourly) != "", strings.TrimSpace(fixed) != "", len(milestones) > 0} {
		if given {
			set++
		}
	}
	switch set {
	case 0:
		return nil, schema.NewValidationError("engagement_type", "required")
	case 1:
	default:
		return nil, schema.NewValidationError("engagement_type", "choose exactly one fee arrangement")
	}

	switch {
	case strings.TrimSpace(hourly) != "":
		rate, err := requiredAmount("engagement_type.rate", hourly)
		if err != nil {
			return nil, err
		}
		return models.HourlyFee{Rate: rate}, nil
	case strings.TrimSpace(fixed) != "":
		amount, err := requiredAmount("engagement_type.amount", fixed)
		if err != nil {
			return nil, err
		}
		return models.FixedFee{Amount: amount}, nil
	}

	fee := models.MilestoneFee{Milestones: make([]models.Milestone, 0, len(milestones))}
	for i, m := range milestones {
		field := fmt.Sprintf("engagement_type.milestones[%d]", i)
		sep := strings.LastIndex(m, "=")
		if sep < 0 {
			return nil, schema.NewValidationError(field, "expected description=amount")
		}
		amount, err := requiredAmount(field+".amount", m[sep+1:])
		if err != nil {
			return nil, err
		}
		fee.Milestones = append(fee.Milestones, models.Milestone{
			Id:          uint64(i + 1),
			Description: m[:sep],
			Amount:      amount,
		})
	}
	return fee, nil
}

// engagementForm holds the raw engagement create flags.
type engagementForm struct {
	title, description string
	lawyer, client     string
	hourly, fixed      string
	milestones         []string
	escrow             string
}

// build parses the amounts and validates the assembled input. Malformed
// values and the form's own violations are reported together; a missing
// escrow is left at zero for the validator to reject.
func (f engagementForm) build() (models.CreateEngagement, error) {
	in := models.CreateEngagement{
		Title:       f.title,
		Description: f.description,
		Lawyer:      f.lawyer,
		Client:      f.client,
	}

	var fields []schema.FieldError
	fee, err := parseFeeArrangement(f.hourly, f.fixed, f.milestones)
	if fields, err = appendFieldErrors(fields, err); err != nil {
		return in, err
	}
	in.EngagementType = models.FeeArrangement{EngagementType: fee}

	escrow, err := optionalAmount("escrow_amount", f.escrow)
	if fields, err = appendFieldErrors(fields, err); err != nil {
		return in, err
	}
	if escrow != nil {
		in.EscrowAmount = *escrow
	}

	_, err = schema.ValidateCreateEngagement(in)
	var ve *schema.ValidationError
	if err != nil && !errors.As(err, &ve) {
		return in, err
	}
	if ve != nil {
		for _, fe := range ve.Errors {
			if !coveredBy(fields, fe.Field) {
				fields = append(fields, fe)
			}
		}
	}

	if len(fields) > 0 {
		return in, &schema.ValidationError{Errors: fields}
	}
	return in, nil
}

func appendFieldErrors(fields []schema.FieldError, err error) ([]schema.FieldError, error) {
	if err == nil {
		return fields, nil
	}
	var ve *schema.ValidationError
	if !errors.As(err, &ve) {
		return fields, err
	}
	return append(fields, ve.Errors...), nil
}

// coveredBy reports whether field, or a field nested with it, was already
// reported while parsing.
func coveredBy(fields []schema.FieldError, field string) bool {
	for _, fe := range fields {
		if fe.Field == field ||
			strings.HasPrefix(field, fe.Field+".") ||
			strings.HasPrefix(fe.Field, field+".") {
			return true
		}
	}
	return false
}
