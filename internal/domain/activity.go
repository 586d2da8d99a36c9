package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category classifies an activity. The zero value is not valid; use
// NormalizeCategory to apply the default.
type Category string

const (
	CategorySightseeing   Category = "sightseeing"
	CategoryFood          Category = "food"
	CategoryShopping      Category = "shopping"
	CategoryEntertainment Category = "entertainment"
	CategoryNature        Category = "nature"
	CategoryCulture       Category = "culture"
	CategoryRelaxation    Category = "relaxation"
	CategoryOther         Category = "other"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategorySightseeing, CategoryFood, CategoryShopping, CategoryEntertainment,
	CategoryNature, CategoryCulture, CategoryRelaxation, CategoryOther,
}

// NormalizeCategory maps "" to CategoryOther and rejects unknown values.
func NormalizeCategory(c Category) (Category, error) {
	if c == "" {
		return CategoryOther, nil
	}
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrValidation, c)
}

// Activity is a single planned item inside an itinerary. It has no identity
// outside its owning itinerary.
type Activity struct {
	ID          uuid.UUID
	Title       string
	Description string
	Location    string
	Category    Category
	Cost        float64
	ImageURL    string
	Schedule    Schedule
}

// Date returns the calendar date the activity takes place on, whichever form
// of schedule it carries.
func (a Activity) Date() time.Time {
	switch s := a.Schedule.(type) {
	case AbsoluteSchedule:
		return s.Date
	case RelativeSchedule:
		return s.DerivedDate
	default:
		return time.Time{}
	}
}

// Schedule is the temporal address of an activity: either AbsoluteSchedule or
// RelativeSchedule. The interface is sealed to this package.
type Schedule interface {
	isSchedule()
}

// AbsoluteSchedule pins an activity to an explicit calendar date.
// StartTime and EndTime are optional "HH:MM" strings.
type AbsoluteSchedule struct {
	Date      time.Time
	StartTime string
	EndTime   string
}

// RelativeSchedule addresses an activity as Day days after the trip start.
// DerivedDate is stored for display and is always ResolveActivityDate(start, Day).
type RelativeSchedule struct {
	Day         int
	Time        string
	DerivedDate time.Time
}

func (AbsoluteSchedule) isSchedule() {}
func (RelativeSchedule) isSchedule() {}

var clockPattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// clockMinutes parses an "HH:MM" string into minutes after midnight.
func clockMinutes(s string) (int, error) {
	if !clockPattern.MatchString(s) {
		return 0, fmt.Errorf("%w: %q is not a valid time (HH:MM)", ErrValidation, s)
	}
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("%w: %q is not a valid time (HH:MM)", ErrValidation, s)
	}
	return h*60 + m, nil
}

// Validate enforces the activity field rules shared by create, add and update.
func (a Activity) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("%w: activity title is required", ErrValidation)
	}
	if a.Cost < 0 {
		return fmt.Errorf("%w: activity cost must not be negative", ErrValidation)
	}
	if _, err := NormalizeCategory(a.Category); err != nil {
		return err
	}

	switch s := a.Schedule.(type) {
	case AbsoluteSchedule:
		if s.Date.IsZero() {
			return fmt.Errorf("%w: activity date is required", ErrValidation)
		}
		var start, end int
		var err error
		if s.StartTime != "" {
			if start, err = clockMinutes(s.StartTime); err != nil {
				return err
			}
		}
		if s.EndTime != "" {
			if end, err = clockMinutes(s.EndTime); err != nil {
				return err
			}
		}
		if s.StartTime != "" && s.EndTime != "" && end < start {
			return fmt.Errorf("%w: end time must not be before start time", ErrValidation)
		}
	case RelativeSchedule:
		if s.Day < 0 {
			return fmt.Errorf("%w: day must be a non-negative integer", ErrValidation)
		}
		if s.Time != "" {
			if _, err := clockMinutes(s.Time); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: activity needs either a date or a day offset", ErrValidation)
	}
	return nil
}
