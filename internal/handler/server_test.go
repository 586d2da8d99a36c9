package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/itinera/backend/internal/auth"
	"github.com/itinera/backend/internal/domain"
	"github.com/itinera/backend/internal/handler"
	"github.com/itinera/backend/internal/middleware"
)

// mockItineraryServicer is a test double for handler.ItineraryServicer.
// Set only the method fields your test needs.
type mockItineraryServicer struct {
	create             func(ctx context.Context, in domain.ItineraryInput, actor domain.Actor) (domain.Itinerary, error)
	get                func(ctx context.Context, id uuid.UUID, actor domain.Actor) (domain.Itinerary, error)
	update             func(ctx context.Context, id uuid.UUID, patch domain.ItineraryPatch, actor domain.Actor) (domain.Itinerary, error)
	delete             func(ctx context.Context, id uuid.UUID, actor domain.Actor) error
	addActivity        func(ctx context.Context, id uuid.UUID, in domain.ActivityInput, actor domain.Actor) (domain.Itinerary, error)
	updateActivity     func(ctx context.Context, id, activityID uuid.UUID, patch domain.ActivityPatch, actor domain.Actor) (domain.Itinerary, error)
	removeActivity     func(ctx context.Context, id, activityID uuid.UUID, actor domain.Actor) (domain.Itinerary, error)
	addCollaborator    func(ctx context.Context, id uuid.UUID, collaboratorID string, actor domain.Actor) (domain.Itinerary, error)
	removeCollaborator func(ctx context.Context, id uuid.UUID, collaboratorID string, actor domain.Actor) (domain.Itinerary, error)
	list               func(ctx context.Context, actor domain.Actor, f domain.ItineraryFilter) ([]domain.Itinerary, int64, error)
}

func (m *mockItineraryServicer) Create(ctx context.Context, in domain.ItineraryInput, actor domain.Actor) (domain.Itinerary, error) {
	return m.create(ctx, in, actor)
}
func (m *mockItineraryServicer) Get(ctx context.Context, id uuid.UUID, actor domain.Actor) (domain.Itinerary, error) {
	return m.get(ctx, id, actor)
}
func (m *mockItineraryServicer) Update(ctx context.Context, id uuid.UUID, patch domain.ItineraryPatch, actor domain.Actor) (domain.Itinerary, error) {
	return m.update(ctx, id, patch, actor)
}
func (m *mockItineraryServicer) Delete(ctx context.Context, id uuid.UUID, actor domain.Actor) error {
	return m.delete(ctx, id, actor)
}
func (m *mockItineraryServicer) AddActivity(ctx context.Context, id uuid.UUID, in domain.ActivityInput, actor domain.Actor) (domain.Itinerary, error) {
	return m.addActivity(ctx, id, in, actor)
}
func (m *mockItineraryServicer) UpdateActivity(ctx context.Context, id, activityID uuid.UUID, patch domain.ActivityPatch, actor domain.Actor) (domain.Itinerary, error) {
	return m.updateActivity(ctx, id, activityID, patch, actor)
}
func (m *mockItineraryServicer) RemoveActivity(ctx context.Context, id, activityID uuid.UUID, actor domain.Actor) (domain.Itinerary, error) {
	return m.removeActivity(ctx, id, activityID, actor)
}
func (m *mockItineraryServicer) AddCollaborator(ctx context.Context, id uuid.UUID, collaboratorID string, actor domain.Actor) (domain.Itinerary, error) {
	return m.addCollaborator(ctx, id, collaboratorID, actor)
}
func (m *mockItineraryServicer) RemoveCollaborator(ctx context.Context, id uuid.UUID, collaboratorID string, actor domain.Actor) (domain.Itinerary, error) {
	return m.removeCollaborator(ctx, id, collaboratorID, actor)
}
func (m *mockItineraryServicer) List(ctx context.Context, actor domain.Actor, f domain.ItineraryFilter) ([]domain.Itinerary, int64, error) {
	return m.list(ctx, actor, f)
}

// mockRecommendationServicer is a test double for handler.RecommendationServicer.
type mockRecommendationServicer struct {
	generateForUser func(ctx context.Context, userID, destination, startDate, endDate string) (domain.RecommendationResult, error)
}

func (m *mockRecommendationServicer) GenerateForUser(ctx context.Context, userID, destination, startDate, endDate string) (domain.RecommendationResult, error) {
	return m.generateForUser(ctx, userID, destination, startDate, endDate)
}

// mockPreferenceServicer is a test double for handler.PreferenceServicer.
type mockPreferenceServicer struct {
	get func(ctx context.Context, userID string) (domain.Preference, error)
	put func(ctx context.Context, userID string, p domain.Preference) (domain.Preference, error)
}

func (m *mockPreferenceServicer) Get(ctx context.Context, userID string) (domain.Preference, error) {
	return m.get(ctx, userID)
}
func (m *mockPreferenceServicer) Put(ctx context.Context, userID string, p domain.Preference) (domain.Preference, error) {
	return m.put(ctx, userID, p)
}

// compile-time checks: the mocks must satisfy the handler interfaces.
var (
	_ handler.ItineraryServicer      = (*mockItineraryServicer)(nil)
	_ handler.RecommendationServicer = (*mockRecommendationServicer)(nil)
	_ handler.PreferenceServicer     = (*mockPreferenceServicer)(nil)
)

// ---- helpers ---------------------------------------------------------------

const testSecret = "handler-test-secret-at-least-32-chars"

var tokens = auth.NewTokenManager(testSecret, "itinera-test")

// deps groups the services a test wires into the router. Nil entries are
// fine for routes the test never reaches.
type deps struct {
	itineraries     handler.ItineraryServicer
	recommendations handler.RecommendationServicer
	preferences     handler.PreferenceServicer
	log             io.Writer
}

// newHTTPHandler wires a Server behind the real authenticator.
// This mirrors how main.go wires it in production.
func newHTTPHandler(d deps) http.Handler {
	w := d.log
	if w == nil {
		w = io.Discard
	}
	srv := handler.NewServer(d.itineraries, d.recommendations, d.preferences, slog.New(slog.NewJSONHandler(w, nil)))
	return srv.Routes(handler.Middlewares{Authenticate: middleware.NewAuthenticator(tokens)})
}

func tokenFor(t *testing.T, userID string, role domain.Role) string {
	t.Helper()
	tok, err := tokens.Issue(userID, role, time.Hour)
	require.NoError(t, err)
	return tok
}

// call performs one request as userID (empty means anonymous) and returns
// the recorder.
func call(t *testing.T, h http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		role := domain.RoleUser
		if userID == "root" {
			role = domain.RoleAdmin
		}
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, userID, role))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func itineraryFixture() domain.Itinerary {
	now := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	return domain.Itinerary{
		ID:            uuid.New(),
		Title:         "Paris Week",
		Destination:   "Paris",
		StartDate:     date(2024, 8, 1),
		EndDate:       date(2024, 8, 7),
		OwnerID:       "alice",
		Collaborators: []string{"bob"},
		Activities: []domain.Activity{
			{
				ID:       uuid.New(),
				Title:    "Louvre",
				Category: domain.CategoryCulture,
				Cost:     22,
				Schedule: domain.RelativeSchedule{Day: 2, Time: "10:00", DerivedDate: date(2024, 8, 3)},
			},
			{
				ID:       uuid.New(),
				Title:    "Dinner",
				Location: "Le Marais",
				Category: domain.CategoryFood,
				Schedule: domain.AbsoluteSchedule{Date: date(2024, 8, 4), StartTime: "19:00", EndTime: "21:30"},
			},
		},
		Tags:      []string{"art", "food"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
