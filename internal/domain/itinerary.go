// Package domain contains the core data types for the Itinera API.
// Apart from uuid it has no external dependencies and is imported by every
// other internal package (policy, repo, service, handler).
package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Itinerary is the aggregate root: a trip plan with its activities and the
// set of users allowed to work on it. It is always read and written as one unit.
type Itinerary struct {
	ID            uuid.UUID
	Title         string
	Description   string
	Destination   string
	StartDate     time.Time
	EndDate       time.Time
	OwnerID       string
	Collaborators []string
	Activities    []Activity
	IsPublic      bool
	Tags          []string
	Budget        *float64 // nil when no budget was given
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsOwner reports whether userID owns the itinerary.
func (it Itinerary) IsOwner(userID string) bool {
	return userID != "" && it.OwnerID == userID
}

// HasCollaborator reports whether userID is in the collaborator set.
func (it Itinerary) HasCollaborator(userID string) bool {
	return userID != "" && slices.Contains(it.Collaborators, userID)
}

// ActivityIndex returns the position of the activity with the given id, or -1.
func (it Itinerary) ActivityIndex(id uuid.UUID) int {
	return slices.IndexFunc(it.Activities, func(a Activity) bool { return a.ID == id })
}

// RederiveDates recomputes DerivedDate for every day-offset activity from the
// current StartDate. Absolute activities are left untouched.
func (it *Itinerary) RederiveDates() {
	for i, a := range it.Activities {
		if rel, ok := a.Schedule.(RelativeSchedule); ok {
			rel.DerivedDate = ResolveActivityDate(it.StartDate, rel.Day)
			it.Activities[i].Schedule = rel
		}
	}
}

// Validate enforces the aggregate-level invariants.
//   - Title and Destination must be non-empty (whitespace-only is rejected).
//   - EndDate must not be before StartDate.
//   - Budget, when set, must not be negative.
//   - The owner is never listed as a collaborator.
func (it Itinerary) Validate() error {
	if strings.TrimSpace(it.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(it.Destination) == "" {
		return fmt.Errorf("%w: destination is required", ErrValidation)
	}
	if it.StartDate.IsZero() || it.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", ErrValidation)
	}
	if it.EndDate.Before(it.StartDate) {
		return fmt.Errorf("%w: end_date must not be before start_date", ErrValidation)
	}
	if it.Budget != nil && *it.Budget < 0 {
		return fmt.Errorf("%w: budget must not be negative", ErrValidation)
	}
	if it.HasCollaborator(it.OwnerID) {
		return fmt.Errorf("%w: owner cannot be a collaborator", ErrValidation)
	}
	for _, a := range it.Activities {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy so callers can mutate it without affecting the
// receiver (used by the in-memory repo and by patch application).
func (it Itinerary) Clone() Itinerary {
	out := it
	out.Collaborators = slices.Clone(it.Collaborators)
	out.Activities = slices.Clone(it.Activities)
	out.Tags = slices.Clone(it.Tags)
	if it.Budget != nil {
		b := *it.Budget
		out.Budget = &b
	}
	return out
}
