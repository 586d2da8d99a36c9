package handler

import "net/http"

// GetPreferences handles GET /api/v1/users/me/preferences.
// Returns 404 until the caller has stored preferences.
func (s *Server) GetPreferences(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	p, err := s.preferences.Get(r.Context(), actor.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preferenceToResponse(p))
}

// PutPreferences handles PUT /api/v1/users/me/preferences.
// The whole record is replaced; empty enum fields take their defaults.
func (s *Server) PutPreferences(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var body PreferenceRequest
	if !decodeBody(w, r, &body) {
		return
	}

	saved, err := s.preferences.Put(r.Context(), actor.UserID, body.toDomain())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preferenceToResponse(saved))
}
