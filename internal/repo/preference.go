package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/itinera/backend/internal/domain"
)

// PreferenceRepo stores one travel-preference record per user.
type PreferenceRepo interface {
	// GetByUserID returns the stored preference.
	// Returns domain.ErrNotFound if the user never saved any.
	GetByUserID(ctx context.Context, userID string) (domain.Preference, error)

	// Upsert creates or replaces the user's preference. CreatedAt of an
	// existing record is preserved.
	Upsert(ctx context.Context, p domain.Preference) (domain.Preference, error)
}

type pgPreferenceRepo struct {
	db db
}

// NewPreferenceRepo constructs a PreferenceRepo backed by the provided db connection.
func NewPreferenceRepo(db db) PreferenceRepo {
	return &pgPreferenceRepo{db: db}
}

const preferenceColumns = `user_id, interests, accommodation_type, transportation_preference,
	food_preferences, accessibility, pace_preference, created_at, updated_at`

func (r *pgPreferenceRepo) GetByUserID(ctx context.Context, userID string) (domain.Preference, error) {
	q := `SELECT ` + preferenceColumns + ` FROM preferences WHERE user_id = @user_id`

	p, err := scanPreference(r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID}))
	if err != nil {
		return domain.Preference{}, fmt.Errorf("repo.PreferenceRepo.GetByUserID: %w", mapError(err))
	}
	return p, nil
}

func (r *pgPreferenceRepo) Upsert(ctx context.Context, p domain.Preference) (domain.Preference, error) {
	q := `
		INSERT INTO preferences (user_id, interests, accommodation_type, transportation_preference,
		                         food_preferences, accessibility, pace_preference, created_at, updated_at)
		VALUES (@user_id, @interests, @accommodation_type, @transportation_preference,
		        @food_preferences, @accessibility, @pace_preference, @now, @now)
		ON CONFLICT (user_id) DO UPDATE
		SET interests                 = EXCLUDED.interests,
		    accommodation_type        = EXCLUDED.accommodation_type,
		    transportation_preference = EXCLUDED.transportation_preference,
		    food_preferences          = EXCLUDED.food_preferences,
		    accessibility             = EXCLUDED.accessibility,
		    pace_preference           = EXCLUDED.pace_preference,
		    updated_at                = EXCLUDED.updated_at
		RETURNING ` + preferenceColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"user_id":                   p.UserID,
		"interests":                 nonNil(p.Interests),
		"accommodation_type":        p.AccommodationType,
		"transportation_preference": p.TransportationPreference,
		"food_preferences":          nonNil(p.FoodPreferences),
		"accessibility":             p.Accessibility,
		"pace_preference":           p.PacePreference,
		"now":                       p.UpdatedAt,
	})
	saved, err := scanPreference(row)
	if err != nil {
		return domain.Preference{}, fmt.Errorf("repo.PreferenceRepo.Upsert: %w", mapError(err))
	}
	return saved, nil
}

func scanPreference(s scanner) (domain.Preference, error) {
	var p domain.Preference
	err := s.Scan(&p.UserID, &p.Interests, &p.AccommodationType, &p.TransportationPreference,
		&p.FoodPreferences, &p.Accessibility, &p.PacePreference, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Preference{}, err
	}
	p.Interests = nonNil(p.Interests)
	p.FoodPreferences = nonNil(p.FoodPreferences)
	return p, nil
}
