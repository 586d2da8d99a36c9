package repo

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/itinera/backend/internal/domain"
)

// memoryItineraryRepo keeps aggregates in a map guarded by a single mutex.
// Every method works on deep copies so callers never share slices with the store.
type memoryItineraryRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]domain.Itinerary
}

// NewMemoryItineraryRepo returns an ItineraryRepo that lives in process memory.
// Used when STORAGE_DRIVER=memory and by service tests.
func NewMemoryItineraryRepo() ItineraryRepo {
	return &memoryItineraryRepo{items: map[uuid.UUID]domain.Itinerary{}}
}

func (r *memoryItineraryRepo) Save(_ context.Context, it domain.Itinerary) (domain.Itinerary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.items[it.ID]; ok {
		it.CreatedAt = prev.CreatedAt
	}
	r.items[it.ID] = normalizeStored(it)
	return r.items[it.ID].Clone(), nil
}

func (r *memoryItineraryRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Itinerary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.items[id]
	if !ok {
		return domain.Itinerary{}, fmt.Errorf("repo.memoryItineraryRepo.GetByID: %w", domain.ErrNotFound)
	}
	return it.Clone(), nil
}

// Update holds the store lock for the whole read-modify-write, so concurrent
// updates to the same itinerary are serialized and none is lost.
func (r *memoryItineraryRepo) Update(_ context.Context, id uuid.UUID, fn func(it *domain.Itinerary) error) (domain.Itinerary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.items[id]
	if !ok {
		return domain.Itinerary{}, fmt.Errorf("repo.memoryItineraryRepo.Update: %w", domain.ErrNotFound)
	}
	work := stored.Clone()
	if err := fn(&work); err != nil {
		return domain.Itinerary{}, err
	}
	work.ID = id
	work.CreatedAt = stored.CreatedAt
	r.items[id] = normalizeStored(work)
	return r.items[id].Clone(), nil
}

func (r *memoryItineraryRepo) Delete(_ context.Context, id uuid.UUID, check func(it domain.Itinerary) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.items[id]
	if !ok {
		return fmt.Errorf("repo.memoryItineraryRepo.Delete: %w", domain.ErrNotFound)
	}
	if check != nil {
		if err := check(stored.Clone()); err != nil {
			return err
		}
	}
	delete(r.items, id)
	return nil
}

func (r *memoryItineraryRepo) List(_ context.Context, f domain.ItineraryFilter) ([]domain.Itinerary, int64, error) {
	r.mu.Lock()
	matched := make([]domain.Itinerary, 0, len(r.items))
	for _, it := range r.items {
		if matchesFilter(it, f) {
			matched = append(matched, it.Clone())
		}
	}
	r.mu.Unlock()

	// Same order as the Postgres query: start_date DESC, created_at DESC, id.
	slices.SortFunc(matched, func(a, b domain.Itinerary) int {
		if c := b.StartDate.Compare(a.StartDate); c != 0 {
			return c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})

	total := int64(len(matched))
	if f.Page.Limit > 0 {
		lo := min(f.Page.Offset(), len(matched))
		hi := min(lo+f.Page.Limit, len(matched))
		matched = matched[lo:hi]
	}
	return matched, total, nil
}

func matchesFilter(it domain.Itinerary, f domain.ItineraryFilter) bool {
	if !f.Unrestricted && !it.IsPublic && !it.IsOwner(f.VisibleTo) && !it.HasCollaborator(f.VisibleTo) {
		return false
	}
	if d := strings.TrimSpace(f.Destination); d != "" &&
		!strings.Contains(strings.ToLower(it.Destination), strings.ToLower(d)) {
		return false
	}
	if f.StartFrom != nil && it.StartDate.Before(domain.CalendarDate(*f.StartFrom)) {
		return false
	}
	if f.EndUntil != nil && it.EndDate.After(domain.CalendarDate(*f.EndUntil)) {
		return false
	}
	return true
}

// normalizeStored gives stored aggregates the same shape the Postgres repo
// returns: non-nil slices and an owned copy.
func normalizeStored(it domain.Itinerary) domain.Itinerary {
	out := it.Clone()
	out.Collaborators = nonNil(out.Collaborators)
	out.Activities = nonNil(out.Activities)
	out.Tags = nonNil(out.Tags)
	return out
}

// memoryPreferenceRepo is the in-process PreferenceRepo.
type memoryPreferenceRepo struct {
	mu    sync.RWMutex
	prefs map[string]domain.Preference
}

// NewMemoryPreferenceRepo returns a PreferenceRepo that lives in process memory.
func NewMemoryPreferenceRepo() PreferenceRepo {
	return &memoryPreferenceRepo{prefs: map[string]domain.Preference{}}
}

func (r *memoryPreferenceRepo) GetByUserID(_ context.Context, userID string) (domain.Preference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.prefs[userID]
	if !ok {
		return domain.Preference{}, fmt.Errorf("repo.memoryPreferenceRepo.GetByUserID: %w", domain.ErrNotFound)
	}
	return clonePreference(p), nil
}

func (r *memoryPreferenceRepo) Upsert(_ context.Context, p domain.Preference) (domain.Preference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p.CreatedAt = p.UpdatedAt
	if prev, ok := r.prefs[p.UserID]; ok {
		p.CreatedAt = prev.CreatedAt
	}
	r.prefs[p.UserID] = clonePreference(p)
	return clonePreference(p), nil
}

func clonePreference(p domain.Preference) domain.Preference {
	p.Interests = nonNil(slices.Clone(p.Interests))
	p.FoodPreferences = nonNil(slices.Clone(p.FoodPreferences))
	return p
}
