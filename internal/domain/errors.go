package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// itinerary (or preference record) does not exist.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrActivityNotFound is returned when an activity id is not present in the
// loaded itinerary aggregate. Handlers should map this to HTTP 404.
var ErrActivityNotFound = errors.New("activity not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, end date before start date).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrNotAuthorized is returned when the acting user lacks the capability
// required by the operation. Handlers should map this to HTTP 403.
var ErrNotAuthorized = errors.New("not authorized")

// ErrAlreadyCollaborator is returned when adding a collaborator who is
// already on the itinerary, or who is its owner. Handlers map it to HTTP 409.
var ErrAlreadyCollaborator = errors.New("already a collaborator")

// ErrRecommendationEngineUnavailable is the single normalized failure of the
// external recommendation engine. It never wraps the transport error.
// Handlers should map this to HTTP 503.
var ErrRecommendationEngineUnavailable = errors.New("recommendation engine unavailable")
