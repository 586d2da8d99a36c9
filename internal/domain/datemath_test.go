package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itinera/backend/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveActivityDate(t *testing.T) {
	start := date(2024, 6, 1)

	assert.Equal(t, start, domain.ResolveActivityDate(start, 0), "offset 0 is the start date")
	assert.Equal(t, date(2024, 6, 3), domain.ResolveActivityDate(start, 2))
	assert.Equal(t, date(2024, 7, 1), domain.ResolveActivityDate(start, 30), "crosses month boundary")
}

func TestResolveActivityDate_IgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2024, 2, 28, 23, 30, 0, 0, time.UTC)

	// 2024 is a leap year.
	assert.Equal(t, date(2024, 2, 29), domain.ResolveActivityDate(start, 1))
}

// TestRederiveDates_FollowsStartDate checks that an offset activity's stored
// date always equals ResolveActivityDate(start, day), before and after the
// start date moves.
func TestRederiveDates_FollowsStartDate(t *testing.T) {
	d0 := date(2024, 6, 1)
	day := 4
	act, err := domain.ActivityInput{Title: "Louvre", Day: &day, Time: "09:00"}.Build(uuid.New(), d0)
	require.NoError(t, err)

	fixed := date(2024, 6, 2)
	abs, err := domain.ActivityInput{Title: "Dinner", Date: &fixed}.Build(uuid.New(), d0)
	require.NoError(t, err)

	it := domain.Itinerary{StartDate: d0, Activities: []domain.Activity{act, abs}}
	assert.Equal(t, domain.ResolveActivityDate(d0, day), it.Activities[0].Date())

	d1 := date(2024, 9, 10)
	it.StartDate = d1
	it.RederiveDates()

	assert.Equal(t, domain.ResolveActivityDate(d1, day), it.Activities[0].Date())
	assert.Equal(t, fixed, it.Activities[1].Date(), "absolute dates never move")
}

func TestParseCalendarDate(t *testing.T) {
	got, err := domain.ParseCalendarDate("2024-08-01")
	require.NoError(t, err)
	assert.Equal(t, date(2024, 8, 1), got)

	got, err = domain.ParseCalendarDate("2024-08-05T15:04:05Z")
	require.NoError(t, err)
	assert.Equal(t, date(2024, 8, 5), got)

	_, err = domain.ParseCalendarDate("next tuesday")
	assert.Error(t, err)

	_, err = domain.ParseCalendarDate("")
	assert.Error(t, err)
}
