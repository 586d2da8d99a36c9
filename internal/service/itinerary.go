// Package service contains the business logic for the Itinera API.
// Services validate inputs, enforce authorization and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/itinera/backend/internal/domain"
	"github.com/itinera/backend/internal/policy"
	"github.com/itinera/backend/internal/repo"
)

// ItineraryService is the only component that mutates itineraries and their
// activities. Every mutation loads the aggregate, checks the policy, applies
// the change and persists it through one atomic repo.Update.
type ItineraryService struct {
	repo  repo.ItineraryRepo
	now   func() time.Time
	newID func() uuid.UUID
}

// ItineraryOption customises an ItineraryService.
type ItineraryOption func(*ItineraryService)

// WithClock replaces time.Now as the source of CreatedAt/UpdatedAt.
func WithClock(now func() time.Time) ItineraryOption {
	return func(s *ItineraryService) { s.now = now }
}

// WithIDGenerator replaces uuid.New for itinerary and activity ids.
func WithIDGenerator(newID func() uuid.UUID) ItineraryOption {
	return func(s *ItineraryService) { s.newID = newID }
}

// NewItineraryService constructs an ItineraryService backed by the provided ItineraryRepo.
func NewItineraryService(r repo.ItineraryRepo, opts ...ItineraryOption) *ItineraryService {
	s := &ItineraryService{repo: r, now: time.Now, newID: uuid.New}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// errUnchanged aborts a repo.Update whose mutation turned out to be a no-op.
var errUnchanged = errors.New("unchanged")

// mutation applies a change to a locked aggregate. Returning changed=false
// leaves the stored aggregate (and its UpdatedAt) untouched.
type mutation func(it *domain.Itinerary) (changed bool, err error)

// mutate runs fn under the repo's read-modify-write lock after checking allowed.
func (s *ItineraryService) mutate(
	ctx context.Context,
	op string,
	id uuid.UUID,
	actor domain.Actor,
	allowed func(domain.Itinerary, domain.Actor) bool,
	fn mutation,
) (domain.Itinerary, error) {
	var unchanged *domain.Itinerary
	updated, err := s.repo.Update(ctx, id, func(it *domain.Itinerary) error {
		if !allowed(*it, actor) {
			return fmt.Errorf("%w: user %q may not %s itinerary %s", domain.ErrNotAuthorized, actor.UserID, op, id)
		}
		changed, err := fn(it)
		if err != nil {
			return err
		}
		if !changed {
			snapshot := it.Clone()
			unchanged = &snapshot
			return errUnchanged
		}
		it.UpdatedAt = s.now().UTC()
		return nil
	})
	if unchanged != nil {
		return *unchanged, nil
	}
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("service.ItineraryService.%s: %w", op, err)
	}
	return updated, nil
}

// Create validates and persists a new itinerary owned by actor.
// Day-offset activities get their date derived from in.StartDate.
// Returns domain.ErrValidation before any persistence call if input is invalid.
func (s *ItineraryService) Create(ctx context.Context, in domain.ItineraryInput, actor domain.Actor) (domain.Itinerary, error) {
	if actor.UserID == "" {
		return domain.Itinerary{}, fmt.Errorf("service.ItineraryService.Create: %w: missing user", domain.ErrNotAuthorized)
	}

	now := s.now().UTC()
	it := domain.Itinerary{
		ID:            s.newID(),
		Title:         strings.TrimSpace(in.Title),
		Description:   in.Description,
		Destination:   strings.TrimSpace(in.Destination),
		StartDate:     domain.CalendarDate(in.StartDate),
		EndDate:       domain.CalendarDate(in.EndDate),
		OwnerID:       actor.UserID,
		Collaborators: []string{},
		Activities:    []domain.Activity{},
		IsPublic:      in.IsPublic,
		Tags:          domain.NormalizeTags(in.Tags),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.Budget != nil {
		b := *in.Budget
		it.Budget = &b
	}
	if err := it.Validate(); err != nil {
		return domain.Itinerary{}, fmt.Errorf("service.ItineraryService.Create: %w", err)
	}

	for i, ain := range in.Activities {
		a, err := ain.Build(s.newID(), it.StartDate)
		if err != nil {
			return domain.Itinerary{}, fmt.Errorf("service.ItineraryService.Create: activity %d: %w", i, err)
		}
		it.Activities = append(it.Activities, a)
	}

	saved, err := s.repo.Save(ctx, it)
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("service.ItineraryService.Create: %w", err)
	}
	return saved, nil
}

// Get returns one itinerary if actor may view it.
// Returns domain.ErrNotFound or domain.ErrNotAuthorized.
func (s *ItineraryService) Get(ctx context.Context, id uuid.UUID, actor domain.Actor) (domain.Itinerary, error) {
	it, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("service.ItineraryService.Get: %w", err)
	}
	if !policy.CanView(it, actor) {
		return domain.Itinerary{}, fmt.Errorf("service.ItineraryService.Get: %w", domain.ErrNotAuthorized)
	}
	return it, nil
}

// Update merges patch onto the itinerary. When the start date moves, every
// day-offset activity gets its date re-derived in the same write.
func (s *ItineraryService) Update(ctx context.Context, id uuid.UUID, patch domain.ItineraryPatch, actor domain.Actor) (domain.Itinerary, error) {
	return s.mutate(ctx, "Update", id, actor, policy.CanEdit, func(it *domain.Itinerary) (bool, error) {
		if startChanged := patch.Apply(it); startChanged {
			it.RederiveDates()
		}
		if patch.Tags != nil {
			it.Tags = domain.NormalizeTags(it.Tags)
		}
		return true, it.Validate()
	})
}

// Delete removes the itinerary and its activities. The permission check runs
// against the locked aggregate inside the same repo call as the removal.
// Returns domain.ErrNotFound or domain.ErrNotAuthorized (owner or admin only).
func (s *ItineraryService) Delete(ctx context.Context, id uuid.UUID, actor domain.Actor) error {
	err := s.repo.Delete(ctx, id, func(it domain.Itinerary) error {
		if !policy.CanDelete(it, actor) {
			return domain.ErrNotAuthorized
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("service.ItineraryService.Delete: %w", err)
	}
	return nil
}

// AddActivity appends a new activity and returns the updated itinerary.
func (s *ItineraryService) AddActivity(ctx context.Context, id uuid.UUID, in domain.ActivityInput, actor domain.Actor) (domain.Itinerary, error) {
	return s.mutate(ctx, "AddActivity", id, actor, policy.CanEdit, func(it *domain.Itinerary) (bool, error) {
		a, err := in.Build(s.newID(), it.StartDate)
		if err != nil {
			return false, err
		}
		it.Activities = append(it.Activities, a)
		return true, nil
	})
}

// UpdateActivity merges patch onto one activity; fields absent from the patch
// are preserved. Returns domain.ErrActivityNotFound for an unknown activityID.
func (s *ItineraryService) UpdateActivity(ctx context.Context, id, activityID uuid.UUID, patch domain.ActivityPatch, actor domain.Actor) (domain.Itinerary, error) {
	return s.mutate(ctx, "UpdateActivity", id, actor, policy.CanEdit, func(it *domain.Itinerary) (bool, error) {
		idx := it.ActivityIndex(activityID)
		if idx < 0 {
			return false, fmt.Errorf("%w: %s", domain.ErrActivityNotFound, activityID)
		}
		a, err := patch.Apply(it.Activities[idx], it.StartDate)
		if err != nil {
			return false, err
		}
		it.Activities[idx] = a
		return true, nil
	})
}

// RemoveActivity deletes one activity. Removing an activity that is not
// present succeeds without changing anything.
func (s *ItineraryService) RemoveActivity(ctx context.Context, id, activityID uuid.UUID, actor domain.Actor) (domain.Itinerary, error) {
	return s.mutate(ctx, "RemoveActivity", id, actor, policy.CanEdit, func(it *domain.Itinerary) (bool, error) {
		idx := it.ActivityIndex(activityID)
		if idx < 0 {
			return false, nil
		}
		it.Activities = slices.Delete(it.Activities, idx, idx+1)
		return true, nil
	})
}

// AddCollaborator grants collaboratorID edit rights. Owner only.
// Returns domain.ErrAlreadyCollaborator if the user is already present or is the owner.
func (s *ItineraryService) AddCollaborator(ctx context.Context, id uuid.UUID, collaboratorID string, actor domain.Actor) (domain.Itinerary, error) {
	collaboratorID = strings.TrimSpace(collaboratorID)
	if collaboratorID == "" {
		return domain.Itinerary{}, fmt.Errorf("service.ItineraryService.AddCollaborator: %w: collaborator id is required", domain.ErrValidation)
	}
	return s.mutate(ctx, "AddCollaborator", id, actor, policy.CanManageCollaborators, func(it *domain.Itinerary) (bool, error) {
		if it.IsOwner(collaboratorID) || it.HasCollaborator(collaboratorID) {
			return false, fmt.Errorf("%w: %s", domain.ErrAlreadyCollaborator, collaboratorID)
		}
		it.Collaborators = append(it.Collaborators, collaboratorID)
		return true, nil
	})
}

// RemoveCollaborator revokes collaboratorID. Owner only. Removing a
// non-member succeeds without changing anything.
func (s *ItineraryService) RemoveCollaborator(ctx context.Context, id uuid.UUID, collaboratorID string, actor domain.Actor) (domain.Itinerary, error) {
	return s.mutate(ctx, "RemoveCollaborator", id, actor, policy.CanManageCollaborators, func(it *domain.Itinerary) (bool, error) {
		idx := slices.Index(it.Collaborators, strings.TrimSpace(collaboratorID))
		if idx < 0 {
			return false, nil
		}
		it.Collaborators = slices.Delete(it.Collaborators, idx, idx+1)
		return true, nil
	})
}

// List returns one page of itineraries visible to actor plus the total match
// count. Administrators see every itinerary; everyone else sees what they own,
// what they collaborate on, and public itineraries.
func (s *ItineraryService) List(ctx context.Context, actor domain.Actor, f domain.ItineraryFilter) ([]domain.Itinerary, int64, error) {
	f.VisibleTo = actor.UserID
	f.Unrestricted = actor.IsAdmin()
	if f.Page.Limit <= 0 {
		f.Page = domain.NewPaginationParams(&f.Page.Page, nil)
	}

	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("service.ItineraryService.List: %w", err)
	}
	return items, total, nil
}
