package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/itinera/backend/internal/domain"
)

// engineRetryAfter is the Retry-After hint sent with a 503 when the
// recommendation engine is unavailable.
const engineRetryAfter = 30

// GenerateRecommendations handles POST /api/v1/itineraries/generate.
// The caller's stored preferences personalise the request; the engine's
// answer is returned under "data" unchanged.
func (s *Server) GenerateRecommendations(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var body GenerateRequest
	if !decodeBody(w, r, &body) {
		return
	}

	result, err := s.recommendations.GenerateForUser(r.Context(), actor.UserID, body.Destination, body.StartDate, body.EndDate)
	if err != nil {
		if errors.Is(err, domain.ErrRecommendationEngineUnavailable) {
			w.Header().Set("Retry-After", strconv.Itoa(engineRetryAfter))
		}
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, GenerateResponse{Data: result})
}
