package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itinera/backend/internal/domain"
	"github.com/itinera/backend/internal/repo"
	"github.com/itinera/backend/internal/service"
)

func TestPreferenceService_PutAndGet(t *testing.T) {
	svc := service.NewPreferenceService(repo.NewMemoryPreferenceRepo(), testClock())
	ctx := context.Background()

	_, err := svc.Get(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	saved, err := svc.Put(ctx, "alice", domain.Preference{
		UserID:    "someone-else",
		Interests: []string{"art", "art", "food"},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", saved.UserID, "the acting user always owns the record")
	assert.Equal(t, []string{"art", "food"}, saved.Interests)
	assert.Equal(t, "mid-range", saved.AccommodationType)
	assert.Equal(t, "public", saved.TransportationPreference)
	assert.Equal(t, "moderate", saved.PacePreference)

	got, err := svc.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestPreferenceService_Put_InvalidEnum(t *testing.T) {
	svc := service.NewPreferenceService(repo.NewMemoryPreferenceRepo(), nil)

	_, err := svc.Put(context.Background(), "alice", domain.Preference{PacePreference: "frantic"})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPreferenceService_Put_RequiresUser(t *testing.T) {
	svc := service.NewPreferenceService(repo.NewMemoryPreferenceRepo(), nil)

	_, err := svc.Put(context.Background(), "", domain.Preference{})

	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}
