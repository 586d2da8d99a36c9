package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Middlewares are the route-scoped middlewares the router applies.
// Global middleware (request id, logging, recovery, CORS) is the caller's job.
type Middlewares struct {
	// Authenticate guards everything under /api/v1.
	Authenticate func(http.Handler) http.Handler
	// LimitRecommend guards the recommendation endpoint only.
	LimitRecommend func(http.Handler) http.Handler
}

// Routes builds the API router. /healthz and /openapi.yaml are public;
// everything under /api/v1 passes through mw.Authenticate.
func (s *Server) Routes(mw Middlewares) chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(passThrough(mw.Authenticate))

		r.Route("/itineraries", func(r chi.Router) {
			r.Get("/", s.ListItineraries)
			r.Post("/", s.CreateItinerary)
			r.With(passThrough(mw.LimitRecommend)).Post("/generate", s.GenerateRecommendations)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetItinerary)
				r.Put("/", s.UpdateItinerary)
				r.Delete("/", s.DeleteItinerary)
				r.Get("/export", s.ExportItinerary)

				r.Post("/activities", s.AddActivity)
				r.Put("/activities/{activityId}", s.UpdateActivity)
				r.Delete("/activities/{activityId}", s.RemoveActivity)

				r.Post("/collaborators", s.AddCollaborator)
				r.Delete("/collaborators/{userId}", s.RemoveCollaborator)
			})
		})

		r.Get("/users/me/preferences", s.GetPreferences)
		r.Put("/users/me/preferences", s.PutPreferences)
	})
	return r
}

func passThrough(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw
}
