package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/itinera/backend/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"itinerary_id", "itinerary_title", "destination",
	"activity_id", "activity_title", "category", "date", "day", "time",
	"start_time", "end_time", "location", "cost", "tags",
}

// ExportRow is one activity of an itinerary flattened with its parent fields.
// Schedule fields carry the same names as the activity resource: Day and Time
// for a day-offset activity, StartTime and EndTime for a dated one.
type ExportRow struct {
	ItineraryID    string   `json:"itinerary_id"`
	ItineraryTitle string   `json:"itinerary_title"`
	Destination    string   `json:"destination"`
	ActivityID     string   `json:"activity_id"`
	ActivityTitle  string   `json:"activity_title"`
	Category       string   `json:"category"`
	Date           string   `json:"date"`
	Day            *int     `json:"day,omitempty"`
	Time           string   `json:"time,omitempty"`
	StartTime      string   `json:"start_time,omitempty"`
	EndTime        string   `json:"end_time,omitempty"`
	Location       string   `json:"location,omitempty"`
	Cost           float64  `json:"cost"`
	Tags           []string `json:"tags"`
}

// ExportItinerary handles GET /api/v1/itineraries/{id}/export.
// It returns one row per activity in itinerary order.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) ExportItinerary(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := s.itineraryTarget(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format != "" && format != "json" && format != "csv" {
		requestError(w, "format must be json or csv")
		return
	}

	it, err := s.itineraries.Get(r.Context(), id, actor)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	rows := exportRows(it)
	if format == "csv" {
		writeCSV(w, it.ID.String(), rows)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func exportRows(it domain.Itinerary) []ExportRow {
	rows := make([]ExportRow, 0, len(it.Activities))
	for _, a := range it.Activities {
		row := ExportRow{
			ItineraryID:    it.ID.String(),
			ItineraryTitle: it.Title,
			Destination:    it.Destination,
			ActivityID:     a.ID.String(),
			ActivityTitle:  a.Title,
			Category:       string(a.Category),
			Date:           a.Date().Format(domain.DateLayout),
			Location:       a.Location,
			Cost:           a.Cost,
			Tags:           nonNil(it.Tags),
		}
		switch sch := a.Schedule.(type) {
		case domain.AbsoluteSchedule:
			row.StartTime, row.EndTime = sch.StartTime, sch.EndTime
		case domain.RelativeSchedule:
			day := sch.Day
			row.Day = &day
			row.Time = sch.Time
		}
		rows = append(rows, row)
	}
	return rows
}

// writeCSV encodes rows as CSV. Tags within a row are pipe-separated ("|")
// to keep each activity on a single CSV line.
func writeCSV(w http.ResponseWriter, name string, rows []ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	// bytes.Buffer writes never fail.
	_ = cw.Write(csvHeaders)
	for _, r := range rows {
		_ = cw.Write(r.record())
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="itinerary-%s.csv"`, name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (r ExportRow) record() []string {
	day := ""
	if r.Day != nil {
		day = strconv.Itoa(*r.Day)
	}
	return []string{
		r.ItineraryID,
		r.ItineraryTitle,
		r.Destination,
		r.ActivityID,
		r.ActivityTitle,
		r.Category,
		r.Date,
		day,
		r.Time,
		r.StartTime,
		r.EndTime,
		r.Location,
		strconv.FormatFloat(r.Cost, 'f', -1, 64),
		strings.Join(r.Tags, "|"),
	}
}
