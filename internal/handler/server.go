// Package handler implements the HTTP handlers for the Itinera API.
// All handlers are methods on Server. Methods are split into resource files
// (itinerary.go, activity.go, etc.) but share the same Server struct so they
// can reach its dependencies.
package handler

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/itinera/backend/internal/domain"
)

// ItineraryServicer defines the itinerary operations the handlers depend on.
// Declared here, in the consumer package, so handler tests can inject a mock
// without touching storage.
type ItineraryServicer interface {
	Create(ctx context.Context, in domain.ItineraryInput, actor domain.Actor) (domain.Itinerary, error)
	Get(ctx context.Context, id uuid.UUID, actor domain.Actor) (domain.Itinerary, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.ItineraryPatch, actor domain.Actor) (domain.Itinerary, error)
	Delete(ctx context.Context, id uuid.UUID, actor domain.Actor) error
	AddActivity(ctx context.Context, id uuid.UUID, in domain.ActivityInput, actor domain.Actor) (domain.Itinerary, error)
	UpdateActivity(ctx context.Context, id, activityID uuid.UUID, patch domain.ActivityPatch, actor domain.Actor) (domain.Itinerary, error)
	RemoveActivity(ctx context.Context, id, activityID uuid.UUID, actor domain.Actor) (domain.Itinerary, error)
	AddCollaborator(ctx context.Context, id uuid.UUID, collaboratorID string, actor domain.Actor) (domain.Itinerary, error)
	RemoveCollaborator(ctx context.Context, id uuid.UUID, collaboratorID string, actor domain.Actor) (domain.Itinerary, error)
	List(ctx context.Context, actor domain.Actor, f domain.ItineraryFilter) ([]domain.Itinerary, int64, error)
}

// RecommendationServicer generates activity recommendations for a trip.
type RecommendationServicer interface {
	GenerateForUser(ctx context.Context, userID, destination, startDate, endDate string) (domain.RecommendationResult, error)
}

// PreferenceServicer reads and writes the caller's travel preferences.
type PreferenceServicer interface {
	Get(ctx context.Context, userID string) (domain.Preference, error)
	Put(ctx context.Context, userID string, p domain.Preference) (domain.Preference, error)
}

// Server holds the dependencies of every API handler.
// Wire it in main.go via Server.Routes.
type Server struct {
	itineraries     ItineraryServicer
	recommendations RecommendationServicer
	preferences     PreferenceServicer
	log             *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// Tests may pass nil for services they do not exercise. A nil logger falls
// back to slog.Default().
func NewServer(
	itineraries ItineraryServicer,
	recommendations RecommendationServicer,
	preferences PreferenceServicer,
	log *slog.Logger,
) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		itineraries:     itineraries,
		recommendations: recommendations,
		preferences:     preferences,
		log:             log,
	}
}
