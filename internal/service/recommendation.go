package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/itinera/backend/internal/domain"
)

// Engine is the external recommendation capability. Implementations own the
// transport, including the timeout that bounds each call.
type Engine interface {
	Recommend(ctx context.Context, req domain.RecommendationRequest) (domain.RecommendationResult, error)
}

// PreferenceStore reads stored user preferences. repo.PreferenceRepo satisfies it.
type PreferenceStore interface {
	GetByUserID(ctx context.Context, userID string) (domain.Preference, error)
}

// RecommendationQuery is the input to Generate. Dates are ISO calendar dates
// or RFC 3339 timestamps. A nil Preferences means no personalization.
type RecommendationQuery struct {
	UserID      string
	Destination string
	StartDate   string
	EndDate     string
	Preferences *domain.Preference
}

// RecommendationService builds engine requests from trip parameters and user
// preferences and normalizes every engine failure into
// domain.ErrRecommendationEngineUnavailable.
type RecommendationService struct {
	engine Engine
	prefs  PreferenceStore
	log    *slog.Logger
}

// NewRecommendationService constructs a RecommendationService.
// A nil logger falls back to slog.Default().
func NewRecommendationService(engine Engine, prefs PreferenceStore, log *slog.Logger) *RecommendationService {
	if log == nil {
		log = slog.Default()
	}
	return &RecommendationService{engine: engine, prefs: prefs, log: log}
}

// Generate validates q, calls the engine exactly once and returns its result
// unchanged. Validation failures are domain.ErrValidation and happen before
// the engine is contacted. Any engine failure, including a timeout, is
// reported as domain.ErrRecommendationEngineUnavailable; the underlying error
// is logged, never returned.
func (s *RecommendationService) Generate(ctx context.Context, q RecommendationQuery) (domain.RecommendationResult, error) {
	req, err := buildRequest(q)
	if err != nil {
		return nil, fmt.Errorf("service.RecommendationService.Generate: %w", err)
	}

	result, err := s.engine.Recommend(ctx, req)
	if err == nil && len(result) == 0 {
		err = errors.New("empty engine response")
	}
	if err != nil {
		s.log.WarnContext(ctx, "recommendation engine call failed",
			"user_id", req.UserID,
			"destination", req.Destination,
			"error", err,
		)
		return nil, fmt.Errorf("service.RecommendationService.Generate: %w", domain.ErrRecommendationEngineUnavailable)
	}
	return result, nil
}

// GenerateForUser loads userID's stored preferences and delegates to Generate.
// A user without stored preferences gets an unpersonalized request.
func (s *RecommendationService) GenerateForUser(ctx context.Context, userID, destination, startDate, endDate string) (domain.RecommendationResult, error) {
	q := RecommendationQuery{UserID: userID, Destination: destination, StartDate: startDate, EndDate: endDate}
	if _, err := buildRequest(q); err != nil {
		return nil, fmt.Errorf("service.RecommendationService.GenerateForUser: %w", err)
	}

	p, err := s.prefs.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		q.Preferences = &p
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("service.RecommendationService.GenerateForUser: load preferences: %w", err)
	}
	return s.Generate(ctx, q)
}

func buildRequest(q RecommendationQuery) (domain.RecommendationRequest, error) {
	dest := strings.TrimSpace(q.Destination)
	if dest == "" {
		return domain.RecommendationRequest{}, fmt.Errorf("%w: destination is required", domain.ErrValidation)
	}
	start, err := domain.ParseCalendarDate(q.StartDate)
	if err != nil {
		return domain.RecommendationRequest{}, fmt.Errorf("%w: start_date: %v", domain.ErrValidation, err)
	}
	end, err := domain.ParseCalendarDate(q.EndDate)
	if err != nil {
		return domain.RecommendationRequest{}, fmt.Errorf("%w: end_date: %v", domain.ErrValidation, err)
	}
	if end.Before(start) {
		return domain.RecommendationRequest{}, fmt.Errorf("%w: end_date must not be before start_date", domain.ErrValidation)
	}
	return domain.RecommendationRequest{
		UserID:      q.UserID,
		Destination: dest,
		StartDate:   start.Format(domain.DateLayout),
		EndDate:     end.Format(domain.DateLayout),
		Preferences: domain.PreferenceSetOf(q.Preferences),
	}, nil
}
