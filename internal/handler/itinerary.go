package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/itinera/backend/internal/auth"
	"github.com/itinera/backend/internal/domain"
)

// CreateItinerary handles POST /api/v1/itineraries.
func (s *Server) CreateItinerary(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var body CreateItineraryRequest
	if !decodeBody(w, r, &body) {
		return
	}

	created, err := s.itineraries.Create(r.Context(), body.toInput(), actor)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, itineraryToResponse(created))
}

// ListItineraries handles GET /api/v1/itineraries.
// Supports ?page= and ?limit= (defaults: page=1, limit=20, max=100) plus the
// ?destination=, ?start_date= and ?end_date= filters.
func (s *Server) ListItineraries(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	f, err := parseListFilter(r)
	if err != nil {
		requestError(w, err.Error())
		return
	}

	items, total, err := s.itineraries.List(r.Context(), actor, f)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	data := make([]Itinerary, len(items))
	for i, it := range items {
		data[i] = itineraryToResponse(it)
	}
	writeJSON(w, http.StatusOK, ItineraryList{
		Data: data,
		Pagination: Pagination{
			Page:  f.Page.Page,
			Limit: f.Page.Limit,
			Total: int(total),
		},
	})
}

// GetItinerary handles GET /api/v1/itineraries/{id}.
func (s *Server) GetItinerary(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := s.itineraryTarget(w, r)
	if !ok {
		return
	}

	it, err := s.itineraries.Get(r.Context(), id, actor)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itineraryToResponse(it))
}

// UpdateItinerary handles PUT /api/v1/itineraries/{id}.
func (s *Server) UpdateItinerary(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := s.itineraryTarget(w, r)
	if !ok {
		return
	}
	var body UpdateItineraryRequest
	if !decodeBody(w, r, &body) {
		return
	}

	updated, err := s.itineraries.Update(r.Context(), id, body.toPatch(), actor)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itineraryToResponse(updated))
}

// DeleteItinerary handles DELETE /api/v1/itineraries/{id}.
func (s *Server) DeleteItinerary(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := s.itineraryTarget(w, r)
	if !ok {
		return
	}

	if err := s.itineraries.Delete(r.Context(), id, actor); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- request helpers --------------------------------------------------------

// requireActor returns the authenticated caller. Routes are mounted behind
// the authenticator, so a missing actor means a wiring bug and gets a 401.
func requireActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok || actor.UserID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return domain.Actor{}, false
	}
	return actor, true
}

// itineraryTarget resolves the caller and the {id} path parameter.
// A malformed id cannot name an existing itinerary and is reported as 404.
func (s *Server) itineraryTarget(w http.ResponseWriter, r *http.Request) (domain.Actor, uuid.UUID, bool) {
	actor, ok := requireActor(w, r)
	if !ok {
		return domain.Actor{}, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "itinerary not found")
		return domain.Actor{}, uuid.Nil, false
	}
	return actor, id, true
}

type queryError string

func (e queryError) Error() string { return string(e) }

func parseListFilter(r *http.Request) (domain.ItineraryFilter, error) {
	q := r.URL.Query()
	page, err := optionalInt(q.Get("page"), "page")
	if err != nil {
		return domain.ItineraryFilter{}, err
	}
	limit, err := optionalInt(q.Get("limit"), "limit")
	if err != nil {
		return domain.ItineraryFilter{}, err
	}

	f := domain.ItineraryFilter{
		Destination: q.Get("destination"),
		Page:        domain.NewPaginationParams(page, limit),
	}
	if v := q.Get("start_date"); v != "" {
		d, err := domain.ParseCalendarDate(v)
		if err != nil {
			return domain.ItineraryFilter{}, queryError("start_date must be a date (YYYY-MM-DD)")
		}
		f.StartFrom = &d
	}
	if v := q.Get("end_date"); v != "" {
		d, err := domain.ParseCalendarDate(v)
		if err != nil {
			return domain.ItineraryFilter{}, queryError("end_date must be a date (YYYY-MM-DD)")
		}
		f.EndUntil = &d
	}
	return f, nil
}

func optionalInt(raw, name string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, queryError(name + " must be an integer")
	}
	return &n, nil
}
