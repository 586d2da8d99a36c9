package handler_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itinera/backend/internal/domain"
	"github.com/itinera/backend/internal/handler"
	"github.com/itinera/backend/internal/repo"
	"github.com/itinera/backend/internal/service"
)

// ---- POST /api/v1/itineraries ----------------------------------------------

func TestCreateItinerary_201(t *testing.T) {
	fixture := itineraryFixture()
	var gotIn domain.ItineraryInput
	var gotActor domain.Actor
	svc := &mockItineraryServicer{
		create: func(_ context.Context, in domain.ItineraryInput, actor domain.Actor) (domain.Itinerary, error) {
			gotIn, gotActor = in, actor
			return fixture, nil
		},
	}

	rec := call(t, newHTTPHandler(deps{itineraries: svc}), http.MethodPost, "/api/v1/itineraries", "alice", map[string]any{
		"title":       "Paris Week",
		"destination": "Paris",
		"start_date":  "2024-08-01",
		"end_date":    "2024-08-07",
		"tags":        []string{"Art"},
		"budget":      1500,
		"activities": []map[string]any{
			{"title": "Louvre", "day": 2, "time": "10:00"},
		},
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[handler.Itinerary](t, rec)
	assert.Equal(t, fixture.ID, resp.ID)
	assert.Equal(t, "alice", resp.OwnerID)
	assert.Equal(t, date(2024, 8, 1), resp.StartDate.Time)
	require.Len(t, resp.Activities, 2)
	assert.Equal(t, 2, *resp.Activities[0].Day)
	assert.Equal(t, date(2024, 8, 3), resp.Activities[0].Date.Time, "derived date is rendered")
	assert.Nil(t, resp.Activities[1].Day)
	assert.Equal(t, "19:00", resp.Activities[1].StartTime)

	assert.Equal(t, "alice", gotActor.UserID)
	assert.Equal(t, domain.RoleUser, gotActor.Role)
	assert.Equal(t, date(2024, 8, 7), gotIn.EndDate)
	assert.Equal(t, 1500.0, *gotIn.Budget)
	require.Len(t, gotIn.Activities, 1)
	assert.Equal(t, 2, *gotIn.Activities[0].Day)
	assert.Nil(t, gotIn.Activities[0].Date)
}

func TestCreateItinerary_422_ValidationError(t *testing.T) {
	svc := &mockItineraryServicer{
		create: func(context.Context, domain.ItineraryInput, domain.Actor) (domain.Itinerary, error) {
			return domain.Itinerary{}, fmt.Errorf("service.ItineraryService.Create: %w: title is required", domain.ErrValidation)
		},
	}

	rec := call(t, newHTTPHandler(deps{itineraries: svc}), http.MethodPost, "/api/v1/itineraries", "alice", map[string]any{"destination": "Paris"})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode[handler.ErrorResponse](t, rec)
	assert.Equal(t, "validation_error", resp.Error.Code)
	assert.Equal(t, "title is required", resp.Error.Message)
}

func TestCreateItinerary_422_MalformedBody(t *testing.T) {
	svc := &mockItineraryServicer{
		create: func(context.Context, domain.ItineraryInput, domain.Actor) (domain.Itinerary, error) {
			t.Fatal("service must not be called")
			return domain.Itinerary{}, nil
		},
	}
	h := newHTTPHandler(deps{itineraries: svc})

	tests := []struct {
		name string
		body any
	}{
		{"not json", "{title:"},
		{"empty", ""},
		{"bad date", `{"title":"x","destination":"y","start_date":"01/08/2024"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(t, h, http.MethodPost, "/api/v1/itineraries", "alice", tt.body)

			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, "validation_error", decode[handler.ErrorResponse](t, rec).Error.Code)
		})
	}
}

func TestCreateItinerary_401_WithoutToken(t *testing.T) {
	rec := call(t, newHTTPHandler(deps{}), http.MethodPost, "/api/v1/itineraries", "", map[string]any{})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decode[handler.ErrorResponse](t, rec).Error.Code)
}

// ---- GET /api/v1/itineraries -----------------------------------------------

func TestListItineraries_200_WithFiltersAndPagination(t *testing.T) {
	fixture := itineraryFixture()
	var got domain.ItineraryFilter
	svc := &mockItineraryServicer{
		list: func(_ context.Context, actor domain.Actor, f domain.ItineraryFilter) ([]domain.Itinerary, int64, error) {
			assert.Equal(t, "bob", actor.UserID)
			got = f
			return []domain.Itinerary{fixture}, 41, nil
		},
	}

	rec := call(t, newHTTPHandler(deps{itineraries: svc}), http.MethodGet,
		"/api/v1/itineraries?page=3&limit=500&destination=par&start_date=2024-08-01&end_date=2024-08-31", "bob", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[handler.ItineraryList](t, rec)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, fixture.ID, resp.Data[0].ID)
	assert.Equal(t, handler.Pagination{Page: 3, Limit: 100, Total: 41}, resp.Pagination, "limit is capped at 100")

	assert.Equal(t, "par", got.Destination)
	require.NotNil(t, got.StartFrom)
	assert.Equal(t, date(2024, 8, 1), *got.StartFrom)
	require.NotNil(t, got.EndUntil)
	assert.Equal(t, date(2024, 8, 31), *got.EndUntil)
}

func TestListItineraries_200_DefaultsAndEmptyArray(t *testing.T) {
	svc := &mockItineraryServicer{
		list: func(_ context.Context, _ domain.Actor, f domain.ItineraryFilter) ([]domain.Itinerary, int64, error) {
			assert.Nil(t, f.StartFrom)
			assert.Nil(t, f.EndUntil)
			return nil, 0, nil
		},
	}

	rec := call(t, newHTTPHandler(deps{itineraries: svc}), http.MethodGet, "/api/v1/itineraries", "alice", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[],"pagination":{"page":1,"limit":20,"total":0}}`, rec.Body.String())
}

func TestListItineraries_422_BadQuery(t *testing.T) {
	h := newHTTPHandler(deps{itineraries: &mockItineraryServicer{}})

	for _, q := range []string{"page=two", "limit=1.5", "start_date=yesterday", "end_date=2024-13-01"} {
		t.Run(q, func(t *testing.T) {
			rec := call(t, h, http.MethodGet, "/api/v1/itineraries?"+q, "alice", nil)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
}

func TestListItineraries_500_UnknownErrorIsLoggedNotLeaked(t *testing.T) {
	var logs bytes.Buffer
	svc := &mockItineraryServicer{
		list: func(context.Context, domain.Actor, domain.ItineraryFilter) ([]domain.Itinerary, int64, error) {
			return nil, 0, errors.New("connection reset by peer")
		},
	}

	rec := call(t, newHTTPHandler(deps{itineraries: svc, log: &logs}), http.MethodGet, "/api/v1/itineraries", "alice", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode[handler.ErrorResponse](t, rec)
	assert.Equal(t, "internal_error", resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "connection reset")
	assert.Contains(t, logs.String(), "connection reset by peer")
}

// ---- GET /api/v1/itineraries/{id} ------------------------------------------

func TestGetItinerary_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"not found", fmt.Errorf("service.ItineraryService.Get: repo.Itinerary.GetByID: %w", domain.ErrNotFound), http.StatusNotFound, "not_found"},
		{"forbidden", fmt.Errorf("service.ItineraryService.Get: %w: user \"eve\" may not view", domain.ErrNotAuthorized), http.StatusForbidden, "forbidden"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockItineraryServicer{
				get: func(context.Context, uuid.UUID, domain.Actor) (domain.Itinerary, error) {
					return domain.Itinerary{}, tt.err
				},
			}

			rec := call(t, newHTTPHandler(deps{itineraries: svc}), http.MethodGet, "/api/v1/itineraries/"+uuid.NewString(), "eve", nil)

			require.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantBody, decode[handler.ErrorResponse](t, rec).Error.Code)
		})
	}
}

func TestGetItinerary_404_MalformedID(t *testing.T) {
	svc := &mockItineraryServicer{
		get: func(context.Context, uuid.UUID, domain.Actor) (domain.Itinerary, error) {
			t.Fatal("service must not be called")
			return domain.Itinerary{}, nil
		},
	}

	rec := call(t, newHTTPHandler(deps{itineraries: svc}), http.MethodGet, "/api/v1/itineraries/not-a-uuid", "alice", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---- PUT /api/v1/itineraries/{id} ------------------------------------------

func TestUpdateItinerary_200_PassesOnlyPresentFields(t *testing.T) {
	fixture := itineraryFixture()
	var got domain.ItineraryPatch
	svc := &mockItineraryServicer{
		update: func(_ context.Context, id uuid.UUID, patch domain.ItineraryPatch, _ domain.Actor) (domain.Itinerary, error) {
			assert.Equal(t, fixture.ID, id)
			got = patch
			return fixture, nil
		},
	}

	rec := call(t, newHTTPHandler(deps{itineraries: svc}), http.MethodPut, "/api/v1/itineraries/"+fixture.ID.String(), "bob",
		map[string]any{"start_date": "2024-09-01", "is_public": true})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, got.StartDate)
	assert.Equal(t, date(2024, 9, 1), *got.StartDate)
	assert.True(t, *got.IsPublic)
	assert.Nil(t, got.Title)
	assert.Nil(t, got.EndDate)
	assert.Nil(t, got.Tags)
}

// ---- DELETE /api/v1/itineraries/{id} ---------------------------------------

func TestDeleteItinerary_204(t *testing.T) {
	id := uuid.New()
	svc := &mockItineraryServicer{
		delete: func(_ context.Context, got uuid.UUID, actor domain.Actor) error {
			assert.Equal(t, id, got)
			assert.True(t, actor.IsAdmin())
			return nil
		},
	}

	rec := call(t, newHTTPHandler(deps{itineraries: svc}), http.MethodDelete, "/api/v1/itineraries/"+id.String(), "root", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

// ---- end to end over the in-memory store -----------------------------------

// TestItineraryLifecycle_OverMemoryStore drives the real service through the
// router: owner creates, a stranger is refused, a collaborator is added and
// may then edit, and a start date change re-derives day-offset dates.
func TestItineraryLifecycle_OverMemoryStore(t *testing.T) {
	svc := service.NewItineraryService(repo.NewMemoryItineraryRepo())
	h := newHTTPHandler(deps{itineraries: svc})

	rec := call(t, h, http.MethodPost, "/api/v1/itineraries", "alice", map[string]any{
		"title":       "Paris Week",
		"destination": "Paris",
		"start_date":  "2024-08-01",
		"end_date":    "2024-08-07",
		"activities":  []map[string]any{{"title": "Louvre", "day": 2}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[handler.Itinerary](t, rec)
	path := "/api/v1/itineraries/" + created.ID.String()
	assert.Equal(t, date(2024, 8, 3), created.Activities[0].Date.Time)

	rec = call(t, h, http.MethodPut, path, "bob", map[string]any{"title": "Mine now"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, h, http.MethodPost, path+"/collaborators", "alice", map[string]any{"user_id": "bob"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"bob"}, decode[handler.Itinerary](t, rec).Collaborators)

	rec = call(t, h, http.MethodPost, path+"/collaborators", "alice", map[string]any{"user_id": "bob"})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = call(t, h, http.MethodPut, path, "bob", map[string]any{"start_date": "2024-08-10", "end_date": "2024-08-16"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[handler.Itinerary](t, rec)
	assert.Equal(t, date(2024, 8, 12), updated.Activities[0].Date.Time)

	rec = call(t, h, http.MethodDelete, path, "bob", nil)
	require.Equal(t, http.StatusForbidden, rec.Code, "collaborators cannot delete")

	rec = call(t, h, http.MethodDelete, path, "alice", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = call(t, h, http.MethodGet, path, "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
