package api

import (
	"context"
	"strings"

	"legal-fee-tracker-go/internal/models"
	"legal-fee-tracker-go/internal/schema"

	"go.uber.org/zap"
)

// FindLawyers searches the lawyer directory. query matches name,
// specialization or jurisdiction case-insensitively; an empty query matches
// everyone. The directory is public, so the call is signed only when a
// session is active.
func (s *TrackerService) FindLawyers(ctx context.Context, query string, filters models.LawyerSearchFilters) ([]models.LawyerProfile, error) {
	if err := schema.ValidateLawyerSearchFilters(filters); err != nil {
		return nil, err
	}
	if caller, err := s.session.Caller(); err == nil {
		ctx = models.WithCaller(ctx, caller)
	}

	lawyers, err := s.backend.GetAllLawyers(ctx)
	if err != nil {
		zap.L().Error("Failed to list lawyers", zap.Error(err))
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	var matches []models.LawyerProfile
	for _, l := range lawyers {
		if matchesQuery(l, query) && matchesFilters(l, filters) {
			matches = append(matches, l)
		}
	}

	zap.L().Debug("Lawyer search completed",
		zap.String("query", query),
		zap.Int("total", len(lawyers)),
		zap.Int("matches", len(matches)))
	return matches, nil
}

func matchesQuery(l models.LawyerProfile, query string) bool {
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(l.Name), query) ||
		strings.Contains(strings.ToLower(l.Jurisdiction), query) {
		return true
	}
	for _, s := range l.Specializations {
		if strings.Contains(strings.ToLower(s), query) {
			return true
		}
	}
	return false
}

func matchesFilters(l models.LawyerProfile, f models.LawyerSearchFilters) bool {
	if f.Specialization != "" && !hasSpecialization(l, f.Specialization) {
		return false
	}
	if f.Jurisdiction != "" && !strings.EqualFold(l.Jurisdiction, f.Jurisdiction) {
		return false
	}
	if f.MinRate != nil && (l.HourlyRate == nil || *l.HourlyRate < *f.MinRate) {
		return false
	}
	if f.MaxRate != nil && (l.HourlyRate == nil || *l.HourlyRate > *f.MaxRate) {
		return false
	}
	if f.MinRating != nil && l.Rating < *f.MinRating {
		return false
	}
	return true
}

func hasSpecialization(l models.LawyerProfile, want string) bool {
	for _, s := range l.Specializations {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}
