// Package exporter renders the dashboard's current view as CSV. The
// backend has its own /export of the full dataset; this one exports what
// the operator is looking at, with their column selection applied.
package exporter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"nsv-dashboard/models"
)

// Column is one exportable field of a survey point.
type Column struct {
	Key    string
	Header string
	value  func(p *models.SurveyPoint) string
}

// Columns returns the exportable columns in their display order. The
// googleMapsLink column is synthesized from the point coordinates; the
// rest come straight off the survey record.
func Columns() []Column {
	return []Column{
		{Key: "id", Header: "ID", value: func(p *models.SurveyPoint) string {
			return strconv.Itoa(p.ID)
		}},
		{Key: "lat", Header: "Latitude", value: func(p *models.SurveyPoint) string {
			return formatFloat(p.Lat)
		}},
		{Key: "lng", Header: "Longitude", value: func(p *models.SurveyPoint) string {
			return formatFloat(p.Lng)
		}},
		{Key: "highway", Header: "Highway", value: func(p *models.SurveyPoint) string {
			return p.Highway
		}},
		{Key: "lane", Header: "Lane", value: func(p *models.SurveyPoint) string {
			return p.Lane
		}},
		{Key: "startChainage", Header: "Start Chainage", value: func(p *models.SurveyPoint) string {
			return p.StartChainage
		}},
		{Key: "endChainage", Header: "End Chainage", value: func(p *models.SurveyPoint) string {
			return p.EndChainage
		}},
		{Key: "structure", Header: "Structure", value: func(p *models.SurveyPoint) string {
			return p.Structure
		}},
		{Key: "type", Header: "Measurement Type", value: func(p *models.SurveyPoint) string {
			return p.Type
		}},
		{Key: "value", Header: "Value", value: func(p *models.SurveyPoint) string {
			return formatFloat(p.Value)
		}},
		{Key: "unit", Header: "Unit", value: func(p *models.SurveyPoint) string {
			return p.Unit
		}},
		{Key: "severity", Header: "Severity", value: func(p *models.SurveyPoint) string {
			return string(p.Severity)
		}},
		{Key: "limit", Header: "Limit", value: func(p *models.SurveyPoint) string {
			return formatFloat(p.Limit)
		}},
		{Key: "datetime", Header: "Date/Time", value: func(p *models.SurveyPoint) string {
			return p.Datetime
		}},
		{Key: "googleMapsLink", Header: "Google Maps Link", value: func(p *models.SurveyPoint) string {
			return p.MapsLink()
		}},
	}
}

// ColumnKeys returns the selectable column keys in display order.
func ColumnKeys() []string {
	cols := Columns()
	keys := make([]string, len(cols))
	for i := range cols {
		keys[i] = cols[i].Key
	}
	return keys
}

// Export is a rendered CSV ready for download.
type Export struct {
	Filename string `json:"filename"`
	Content  string `json:"csv_content"`
}

// Build renders points into CSV using the selected column keys, in
// registry order. An empty selection is rejected before any work, and an
// unknown key is an error rather than a silently empty column.
func Build(points []models.SurveyPoint, keys []string, filter models.Filter, now time.Time) (*Export, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("no columns selected")
	}

	selected := map[string]bool{}
	for _, k := range keys {
		selected[k] = true
	}

	var cols []Column
	for _, c := range Columns() {
		if selected[c.Key] {
			cols = append(cols, c)
			delete(selected, c.Key)
		}
	}
	for k := range selected {
		return nil, fmt.Errorf("unknown export column %q", k)
	}

	var b strings.Builder
	for i, c := range cols {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(quoteField(c.Header))
	}
	b.WriteByte('\n')

	for i := range points {
		for j, c := range cols {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quoteField(c.value(&points[i])))
		}
		b.WriteByte('\n')
	}

	return &Export{
		Filename: Filename(filter, now),
		Content:  b.String(),
	}, nil
}

// Filename builds the download name: the fixed prefix, the active
// severity filter when one is narrowing the list, and a UTC second
// precision timestamp with the characters that upset filesystems
// (colons, periods) stripped.
func Filename(filter models.Filter, now time.Time) string {
	name := "nhai_pavement_data_filtered"
	if filter != models.FilterAll && filter != "" {
		name += "_" + strings.ToLower(string(filter))
	}
	stamp := now.UTC().Format("2006-01-02T150405Z")
	return name + "_" + stamp + ".csv"
}

// quoteField wraps a field in double quotes only when it contains a
// comma, doubling any embedded quotes. Route names like
// "NH-44, Section B" stay one field for spreadsheet consumers.
func quoteField(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
