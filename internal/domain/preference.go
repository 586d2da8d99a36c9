package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// Preference holds a user's stored travel preferences. One per user.
type Preference struct {
	UserID                   string
	Interests                []string
	AccommodationType        string
	TransportationPreference string
	FoodPreferences          []string
	Accessibility            bool
	PacePreference           string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

var (
	accommodationTypes = []string{"budget", "mid-range", "luxury"}
	transportModes     = []string{"public", "rental", "walking", "tour"}
	paces              = []string{"relaxed", "moderate", "intense"}
)

// Normalize fills empty enum fields with their defaults and validates the rest.
// Defaults: mid-range accommodation, public transport, moderate pace.
func (p *Preference) Normalize() error {
	if err := normalizeEnum(&p.AccommodationType, "mid-range", accommodationTypes, "accommodation_type"); err != nil {
		return err
	}
	if err := normalizeEnum(&p.TransportationPreference, "public", transportModes, "transportation_preference"); err != nil {
		return err
	}
	if err := normalizeEnum(&p.PacePreference, "moderate", paces, "pace_preference"); err != nil {
		return err
	}
	p.Interests = dedupe(p.Interests)
	p.FoodPreferences = dedupe(p.FoodPreferences)
	return nil
}

func normalizeEnum(v *string, def string, allowed []string, field string) error {
	if *v == "" {
		*v = def
		return nil
	}
	if !slices.Contains(allowed, *v) {
		return fmt.Errorf("%w: %s must be one of %v", ErrValidation, field, allowed)
	}
	return nil
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// PreferenceSet is the preference block sent to the recommendation engine.
// Every field is optional; an empty set marshals to {} and means
// "no personalization available".
type PreferenceSet struct {
	Interests                []string `json:"interests,omitempty"`
	AccommodationType        string   `json:"accommodationType,omitempty"`
	TransportationPreference string   `json:"transportationPreference,omitempty"`
	FoodPreferences          []string `json:"foodPreferences,omitempty"`
	Accessibility            bool     `json:"accessibility,omitempty"`
	PacePreference           string   `json:"pacePreference,omitempty"`
}

// PreferenceSetOf converts a stored preference into the engine form.
// A nil preference yields the empty set.
func PreferenceSetOf(p *Preference) PreferenceSet {
	if p == nil {
		return PreferenceSet{}
	}
	return PreferenceSet{
		Interests:                p.Interests,
		AccommodationType:        p.AccommodationType,
		TransportationPreference: p.TransportationPreference,
		FoodPreferences:          p.FoodPreferences,
		Accessibility:            p.Accessibility,
		PacePreference:           p.PacePreference,
	}
}

// RecommendationRequest is the payload handed to the recommendation engine.
type RecommendationRequest struct {
	UserID      string        `json:"userId"`
	Destination string        `json:"destination"`
	StartDate   string        `json:"startDate"`
	EndDate     string        `json:"endDate"`
	Preferences PreferenceSet `json:"preferences"`
}

// RecommendationResult is the engine's answer, passed through unchanged.
type RecommendationResult json.RawMessage

// MarshalJSON emits the raw engine payload.
func (r RecommendationResult) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}
