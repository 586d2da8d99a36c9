package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// AddActivity handles POST /api/v1/itineraries/{id}/activities.
// Responds with the whole updated itinerary.
func (s *Server) AddActivity(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := s.itineraryTarget(w, r)
	if !ok {
		return
	}
	var body ActivityRequest
	if !decodeBody(w, r, &body) {
		return
	}

	updated, err := s.itineraries.AddActivity(r.Context(), id, body.toInput(), actor)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, itineraryToResponse(updated))
}

// UpdateActivity handles PUT /api/v1/itineraries/{id}/activities/{activityId}.
func (s *Server) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := s.itineraryTarget(w, r)
	if !ok {
		return
	}
	activityID, err := uuid.Parse(chi.URLParam(r, "activityId"))
	if err != nil {
		writeError(w, http.StatusNotFound, "activity_not_found", "activity not found")
		return
	}
	var body UpdateActivityRequest
	if !decodeBody(w, r, &body) {
		return
	}

	updated, err := s.itineraries.UpdateActivity(r.Context(), id, activityID, body.toPatch(), actor)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itineraryToResponse(updated))
}

// RemoveActivity handles DELETE /api/v1/itineraries/{id}/activities/{activityId}.
// Removing an activity that is not there succeeds and returns the unchanged
// itinerary.
func (s *Server) RemoveActivity(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := s.itineraryTarget(w, r)
	if !ok {
		return
	}
	activityID, err := uuid.Parse(chi.URLParam(r, "activityId"))
	if err != nil {
		// No activity can carry a malformed id, so the removal is a no-op.
		activityID = uuid.Nil
	}

	updated, err := s.itineraries.RemoveActivity(r.Context(), id, activityID, actor)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itineraryToResponse(updated))
}
