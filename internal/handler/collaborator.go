package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// AddCollaborator handles POST /api/v1/itineraries/{id}/collaborators.
// Only the owner may share an itinerary.
func (s *Server) AddCollaborator(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := s.itineraryTarget(w, r)
	if !ok {
		return
	}
	var body AddCollaboratorRequest
	if !decodeBody(w, r, &body) {
		return
	}

	updated, err := s.itineraries.AddCollaborator(r.Context(), id, body.UserID, actor)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itineraryToResponse(updated))
}

// RemoveCollaborator handles DELETE /api/v1/itineraries/{id}/collaborators/{userId}.
func (s *Server) RemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := s.itineraryTarget(w, r)
	if !ok {
		return
	}

	updated, err := s.itineraries.RemoveCollaborator(r.Context(), id, chi.URLParam(r, "userId"), actor)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itineraryToResponse(updated))
}
