package service

import (
	"context"
	"fmt"
	"time"

	"github.com/itinera/backend/internal/domain"
	"github.com/itinera/backend/internal/repo"
)

// PreferenceService reads and writes a user's travel preferences.
type PreferenceService struct {
	repo repo.PreferenceRepo
	now  func() time.Time
}

// NewPreferenceService constructs a PreferenceService. A nil now uses time.Now.
func NewPreferenceService(r repo.PreferenceRepo, now func() time.Time) *PreferenceService {
	if now == nil {
		now = time.Now
	}
	return &PreferenceService{repo: r, now: now}
}

// Get returns the stored preferences. Returns domain.ErrNotFound if none exist.
func (s *PreferenceService) Get(ctx context.Context, userID string) (domain.Preference, error) {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return domain.Preference{}, fmt.Errorf("service.PreferenceService.Get: %w", err)
	}
	return p, nil
}

// Put replaces userID's preferences. Empty enum fields take their defaults;
// unknown enum values are domain.ErrValidation.
func (s *PreferenceService) Put(ctx context.Context, userID string, p domain.Preference) (domain.Preference, error) {
	if userID == "" {
		return domain.Preference{}, fmt.Errorf("service.PreferenceService.Put: %w: missing user", domain.ErrNotAuthorized)
	}
	p.UserID = userID
	if err := p.Normalize(); err != nil {
		return domain.Preference{}, fmt.Errorf("service.PreferenceService.Put: %w", err)
	}
	p.UpdatedAt = s.now().UTC()

	saved, err := s.repo.Upsert(ctx, p)
	if err != nil {
		return domain.Preference{}, fmt.Errorf("service.PreferenceService.Put: %w", err)
	}
	return saved, nil
}
