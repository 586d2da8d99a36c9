package domain

import "time"

// ItineraryFilter narrows an itinerary listing.
//
// When Unrestricted is false only itineraries owned by VisibleTo, shared
// with VisibleTo as a collaborator, or marked public are returned.
// Destination is a case-insensitive substring match. StartFrom is an
// inclusive lower bound on start_date; EndUntil an inclusive upper bound on
// end_date.
type ItineraryFilter struct {
	VisibleTo    string
	Unrestricted bool
	Destination  string
	StartFrom    *time.Time
	EndUntil     *time.Time
	Page         PaginationParams
}

// PaginationParams carries page/limit values from the HTTP layer to the repo layer.
// Page is 1-indexed. Limit is capped at 100 by NewPaginationParams.
type PaginationParams struct {
	Page  int
	Limit int
}

// NewPaginationParams builds a PaginationParams from optional query params.
// Nil pointers fall back to page=1, limit=20.
func NewPaginationParams(page, limit *int) PaginationParams {
	p := PaginationParams{Page: 1, Limit: 20}
	if page != nil && *page >= 1 {
		p.Page = *page
	}
	if limit != nil && *limit >= 1 {
		p.Limit = min(*limit, 100)
	}
	return p
}

// Offset returns the zero-based row offset for a SQL OFFSET clause.
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}
