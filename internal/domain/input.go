package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ItineraryInput carries the fields a caller may supply when creating an itinerary.
type ItineraryInput struct {
	Title       string
	Description string
	Destination string
	StartDate   time.Time
	EndDate     time.Time
	IsPublic    bool
	Tags        []string
	Budget      *float64
	Activities  []ActivityInput
}

// ItineraryPatch is a partial update. Nil fields are left unchanged.
// Owner and collaborators are not patchable here.
type ItineraryPatch struct {
	Title       *string
	Description *string
	Destination *string
	StartDate   *time.Time
	EndDate     *time.Time
	IsPublic    *bool
	Tags        *[]string
	Budget      *float64
}

// Apply merges the patch onto it and reports whether StartDate moved.
func (p ItineraryPatch) Apply(it *Itinerary) (startChanged bool) {
	if p.Title != nil {
		it.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.Destination != nil {
		it.Destination = strings.TrimSpace(*p.Destination)
	}
	if p.StartDate != nil {
		d := CalendarDate(*p.StartDate)
		startChanged = !d.Equal(it.StartDate)
		it.StartDate = d
	}
	if p.EndDate != nil {
		it.EndDate = CalendarDate(*p.EndDate)
	}
	if p.IsPublic != nil {
		it.IsPublic = *p.IsPublic
	}
	if p.Tags != nil {
		it.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Budget != nil {
		b := *p.Budget
		it.Budget = &b
	}
	return startChanged
}

// ActivityInput is the create form of an activity. Exactly one of Date or Day
// must be set: Date selects an AbsoluteSchedule (with StartTime/EndTime),
// Day selects a RelativeSchedule (with Time).
type ActivityInput struct {
	Title       string
	Description string
	Location    string
	Category    Category
	Cost        *float64
	ImageURL    string

	Date      *time.Time
	StartTime string
	EndTime   string

	Day  *int
	Time string
}

// Build turns the input into an Activity with the given id, deriving the date
// of a day-offset activity from tripStart.
func (in ActivityInput) Build(id uuid.UUID, tripStart time.Time) (Activity, error) {
	cat, err := NormalizeCategory(in.Category)
	if err != nil {
		return Activity{}, err
	}
	a := Activity{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Location:    in.Location,
		Category:    cat,
		ImageURL:    in.ImageURL,
	}
	if in.Cost != nil {
		a.Cost = *in.Cost
	}

	switch {
	case in.Date != nil && in.Day != nil:
		return Activity{}, fmt.Errorf("%w: date and day are mutually exclusive", ErrValidation)
	case in.Date != nil:
		if in.Time != "" {
			return Activity{}, fmt.Errorf("%w: time applies only to day-offset activities; use start_time", ErrValidation)
		}
		a.Schedule = AbsoluteSchedule{Date: CalendarDate(*in.Date), StartTime: in.StartTime, EndTime: in.EndTime}
	case in.Day != nil:
		if in.StartTime != "" || in.EndTime != "" {
			return Activity{}, fmt.Errorf("%w: start_time and end_time apply only to dated activities; use time", ErrValidation)
		}
		a.Schedule = RelativeSchedule{Day: *in.Day, Time: in.Time, DerivedDate: ResolveActivityDate(tripStart, *in.Day)}
	}

	if err := a.Validate(); err != nil {
		return Activity{}, err
	}
	return a, nil
}

// ActivityPatch is a partial activity update. Nil fields are preserved.
// Setting Date converts the activity to an absolute schedule; setting Day
// converts it to a day-offset schedule. Setting both is rejected.
type ActivityPatch struct {
	Title       *string
	Description *string
	Location    *string
	Category    *Category
	Cost        *float64
	ImageURL    *string

	Date      *time.Time
	StartTime *string
	EndTime   *string

	Day  *int
	Time *string
}

// Apply merges the patch onto a copy of a and validates the result.
func (p ActivityPatch) Apply(a Activity, tripStart time.Time) (Activity, error) {
	if p.Title != nil {
		a.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Location != nil {
		a.Location = *p.Location
	}
	if p.Category != nil {
		cat, err := NormalizeCategory(*p.Category)
		if err != nil {
			return Activity{}, err
		}
		a.Category = cat
	}
	if p.Cost != nil {
		a.Cost = *p.Cost
	}
	if p.ImageURL != nil {
		a.ImageURL = *p.ImageURL
	}

	sched, err := p.applySchedule(a.Schedule, tripStart)
	if err != nil {
		return Activity{}, err
	}
	a.Schedule = sched

	if err := a.Validate(); err != nil {
		return Activity{}, err
	}
	return a, nil
}

func (p ActivityPatch) applySchedule(cur Schedule, tripStart time.Time) (Schedule, error) {
	if p.Date != nil && p.Day != nil {
		return nil, fmt.Errorf("%w: date and day are mutually exclusive", ErrValidation)
	}

	switch {
	case p.Date != nil:
		if p.Time != nil {
			return nil, fmt.Errorf("%w: time applies only to day-offset activities; use start_time", ErrValidation)
		}
		next := AbsoluteSchedule{Date: CalendarDate(*p.Date)}
		if abs, ok := cur.(AbsoluteSchedule); ok {
			next.StartTime, next.EndTime = abs.StartTime, abs.EndTime
		}
		setIf(&next.StartTime, p.StartTime)
		setIf(&next.EndTime, p.EndTime)
		return next, nil

	case p.Day != nil:
		if p.StartTime != nil || p.EndTime != nil {
			return nil, fmt.Errorf("%w: start_time and end_time apply only to dated activities; use time", ErrValidation)
		}
		next := RelativeSchedule{Day: *p.Day}
		if rel, ok := cur.(RelativeSchedule); ok {
			next.Time = rel.Time
		}
		setIf(&next.Time, p.Time)
		next.DerivedDate = ResolveActivityDate(tripStart, next.Day)
		return next, nil
	}

	switch s := cur.(type) {
	case AbsoluteSchedule:
		if p.Time != nil {
			return nil, fmt.Errorf("%w: time applies only to day-offset activities; use start_time", ErrValidation)
		}
		setIf(&s.StartTime, p.StartTime)
		setIf(&s.EndTime, p.EndTime)
		return s, nil
	case RelativeSchedule:
		if p.StartTime != nil || p.EndTime != nil {
			return nil, fmt.Errorf("%w: start_time and end_time apply only to dated activities; use time", ErrValidation)
		}
		setIf(&s.Time, p.Time)
		return s, nil
	}
	return cur, nil
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
