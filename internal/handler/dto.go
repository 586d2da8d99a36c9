package handler

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/itinera/backend/internal/domain"
)

// Itinerary is the JSON representation of an itinerary aggregate.
type Itinerary struct {
	ID            openapi_types.UUID `json:"id"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	Destination   string             `json:"destination"`
	StartDate     openapi_types.Date `json:"start_date"`
	EndDate       openapi_types.Date `json:"end_date"`
	OwnerID       string             `json:"owner_id"`
	Collaborators []string           `json:"collaborators"`
	Activities    []Activity         `json:"activities"`
	IsPublic      bool               `json:"is_public"`
	Tags          []string           `json:"tags"`
	Budget        *float64           `json:"budget,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// Activity is the JSON representation of an activity. Date is always set:
// for a day-offset activity it is the derived date and Day is present.
type Activity struct {
	ID          openapi_types.UUID `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Location    string             `json:"location,omitempty"`
	Category    string             `json:"category"`
	Cost        float64            `json:"cost"`
	ImageURL    string             `json:"image_url,omitempty"`
	Date        openapi_types.Date `json:"date"`
	StartTime   string             `json:"start_time,omitempty"`
	EndTime     string             `json:"end_time,omitempty"`
	Day         *int               `json:"day,omitempty"`
	Time        string             `json:"time,omitempty"`
}

// ItineraryList is the paginated body of GET /itineraries.
type ItineraryList struct {
	Data       []Itinerary `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination describes the returned page.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// CreateItineraryRequest is the body of POST /itineraries.
type CreateItineraryRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Destination string              `json:"destination"`
	StartDate   *openapi_types.Date `json:"start_date"`
	EndDate     *openapi_types.Date `json:"end_date"`
	IsPublic    bool                `json:"is_public"`
	Tags        []string            `json:"tags"`
	Budget      *float64            `json:"budget"`
	Activities  []ActivityRequest   `json:"activities"`
}

// UpdateItineraryRequest is the body of PUT /itineraries/{id}.
// Absent fields are left unchanged.
type UpdateItineraryRequest struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	Destination *string             `json:"destination"`
	StartDate   *openapi_types.Date `json:"start_date"`
	EndDate     *openapi_types.Date `json:"end_date"`
	IsPublic    *bool               `json:"is_public"`
	Tags        *[]string           `json:"tags"`
	Budget      *float64            `json:"budget"`
}

// ActivityRequest is the body of POST /itineraries/{id}/activities and an
// element of CreateItineraryRequest.Activities. Exactly one of Date or Day
// must be given.
type ActivityRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Location    string              `json:"location"`
	Category    string              `json:"category"`
	Cost        *float64            `json:"cost"`
	ImageURL    string              `json:"image_url"`
	Date        *openapi_types.Date `json:"date"`
	StartTime   string              `json:"start_time"`
	EndTime     string              `json:"end_time"`
	Day         *int                `json:"day"`
	Time        string              `json:"time"`
}

// UpdateActivityRequest is the body of PUT /itineraries/{id}/activities/{activityId}.
type UpdateActivityRequest struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	Location    *string             `json:"location"`
	Category    *string             `json:"category"`
	Cost        *float64            `json:"cost"`
	ImageURL    *string             `json:"image_url"`
	Date        *openapi_types.Date `json:"date"`
	StartTime   *string             `json:"start_time"`
	EndTime     *string             `json:"end_time"`
	Day         *int                `json:"day"`
	Time        *string             `json:"time"`
}

// AddCollaboratorRequest is the body of POST /itineraries/{id}/collaborators.
type AddCollaboratorRequest struct {
	UserID string `json:"user_id"`
}

// GenerateRequest is the body of POST /itineraries/generate. Dates may be
// calendar dates or RFC 3339 timestamps.
type GenerateRequest struct {
	Destination string `json:"destination"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

// GenerateResponse wraps the engine's recommendations, passed through unchanged.
type GenerateResponse struct {
	Data domain.RecommendationResult `json:"data"`
}

// PreferenceRequest is the body of PUT /users/me/preferences.
type PreferenceRequest struct {
	Interests                []string `json:"interests"`
	AccommodationType        string   `json:"accommodation_type"`
	TransportationPreference string   `json:"transportation_preference"`
	FoodPreferences          []string `json:"food_preferences"`
	Accessibility            bool     `json:"accessibility"`
	PacePreference           string   `json:"pace_preference"`
}

// Preference is the JSON representation of stored preferences.
type Preference struct {
	UserID                   string    `json:"user_id"`
	Interests                []string  `json:"interests"`
	AccommodationType        string    `json:"accommodation_type"`
	TransportationPreference string    `json:"transportation_preference"`
	FoodPreferences          []string  `json:"food_preferences"`
	Accessibility            bool      `json:"accessibility"`
	PacePreference           string    `json:"pace_preference"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// --- mapping helpers --------------------------------------------------------

func itineraryToResponse(it domain.Itinerary) Itinerary {
	resp := Itinerary{
		ID:            it.ID,
		Title:         it.Title,
		Description:   it.Description,
		Destination:   it.Destination,
		StartDate:     openapi_types.Date{Time: it.StartDate},
		EndDate:       openapi_types.Date{Time: it.EndDate},
		OwnerID:       it.OwnerID,
		Collaborators: nonNil(it.Collaborators),
		Activities:    make([]Activity, len(it.Activities)),
		IsPublic:      it.IsPublic,
		Tags:          nonNil(it.Tags),
		Budget:        it.Budget,
		CreatedAt:     it.CreatedAt,
		UpdatedAt:     it.UpdatedAt,
	}
	for i, a := range it.Activities {
		resp.Activities[i] = activityToResponse(a)
	}
	return resp
}

func activityToResponse(a domain.Activity) Activity {
	resp := Activity{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Location:    a.Location,
		Category:    string(a.Category),
		Cost:        a.Cost,
		ImageURL:    a.ImageURL,
		Date:        openapi_types.Date{Time: a.Date()},
	}
	switch s := a.Schedule.(type) {
	case domain.AbsoluteSchedule:
		resp.StartTime, resp.EndTime = s.StartTime, s.EndTime
	case domain.RelativeSchedule:
		day := s.Day
		resp.Day = &day
		resp.Time = s.Time
	}
	return resp
}

func (req CreateItineraryRequest) toInput() domain.ItineraryInput {
	in := domain.ItineraryInput{
		Title:       req.Title,
		Description: req.Description,
		Destination: req.Destination,
		StartDate:   dateOrZero(req.StartDate),
		EndDate:     dateOrZero(req.EndDate),
		IsPublic:    req.IsPublic,
		Tags:        req.Tags,
		Budget:      req.Budget,
	}
	for _, a := range req.Activities {
		in.Activities = append(in.Activities, a.toInput())
	}
	return in
}

func (req UpdateItineraryRequest) toPatch() domain.ItineraryPatch {
	return domain.ItineraryPatch{
		Title:       req.Title,
		Description: req.Description,
		Destination: req.Destination,
		StartDate:   datePtr(req.StartDate),
		EndDate:     datePtr(req.EndDate),
		IsPublic:    req.IsPublic,
		Tags:        req.Tags,
		Budget:      req.Budget,
	}
}

func (req ActivityRequest) toInput() domain.ActivityInput {
	return domain.ActivityInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Category:    domain.Category(req.Category),
		Cost:        req.Cost,
		ImageURL:    req.ImageURL,
		Date:        datePtr(req.Date),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Day:         req.Day,
		Time:        req.Time,
	}
}

func (req UpdateActivityRequest) toPatch() domain.ActivityPatch {
	p := domain.ActivityPatch{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Cost:        req.Cost,
		ImageURL:    req.ImageURL,
		Date:        datePtr(req.Date),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Day:         req.Day,
		Time:        req.Time,
	}
	if req.Category != nil {
		c := domain.Category(*req.Category)
		p.Category = &c
	}
	return p
}

func (req PreferenceRequest) toDomain() domain.Preference {
	return domain.Preference{
		Interests:                req.Interests,
		AccommodationType:        req.AccommodationType,
		TransportationPreference: req.TransportationPreference,
		FoodPreferences:          req.FoodPreferences,
		Accessibility:            req.Accessibility,
		PacePreference:           req.PacePreference,
	}
}

func preferenceToResponse(p domain.Preference) Preference {
	return Preference{
		UserID:                   p.UserID,
		Interests:                nonNil(p.Interests),
		AccommodationType:        p.AccommodationType,
		TransportationPreference: p.TransportationPreference,
		FoodPreferences:          nonNil(p.FoodPreferences),
		Accessibility:            p.Accessibility,
		PacePreference:           p.PacePreference,
		CreatedAt:                p.CreatedAt,
		UpdatedAt:                p.UpdatedAt,
	}
}

func dateOrZero(d *openapi_types.Date) time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}

func datePtr(d *openapi_types.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
