package exporter

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"nsv-dashboard/models"
)

func TestBuildQuotesOnlyFieldsWithCommas(t *testing.T) {
	points := []models.SurveyPoint{
		{ID: 1, Highway: "NH-44, Section B", Lane: "L1", Severity: "High"},
		{ID: 2, Highway: "NH-48", Lane: "R2", Severity: "Low"},
	}

	export, err := Build(points, []string{"id", "highway", "lane"}, models.FilterAll, time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	lines := strings.Split(strings.TrimRight(export.Content, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows", len(lines))
	}
	if lines[1] != `1,"NH-44, Section B",L1` {
		t.Errorf("row with comma = %q, want the highway quoted and nothing else", lines[1])
	}
	if lines[2] != `2,NH-48,R2` {
		t.Errorf("row without comma = %q, want no quoting at all", lines[2])
	}

	// A spreadsheet-grade reader recovers the original fields.
	rows, err := csv.NewReader(strings.NewReader(export.Content)).ReadAll()
	if err != nil {
		t.Fatalf("parsing exported CSV: %v", err)
	}
	if rows[1][1] != "NH-44, Section B" {
		t.Errorf("round-tripped highway = %q, want comma preserved inside one field", rows[1][1])
	}
}

func TestBuildDoublesEmbeddedQuotes(t *testing.T) {
	points := []models.SurveyPoint{
		{ID: 1, Structure: `bridge "A-12", south span`},
	}

	export, err := Build(points, []string{"structure"}, models.FilterAll, time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	lines := strings.Split(strings.TrimRight(export.Content, "\n"), "\n")
	want := `"bridge ""A-12"", south span"`
	if lines[1] != want {
		t.Errorf("quoted row = %q, want %q", lines[1], want)
	}

	rows, err := csv.NewReader(strings.NewReader(export.Content)).ReadAll()
	if err != nil {
		t.Fatalf("parsing exported CSV: %v", err)
	}
	if rows[1][0] != `bridge "A-12", south span` {
		t.Errorf("round-tripped structure = %q", rows[1][0])
	}
}

func TestBuildHeaderAndRegistryOrder(t *testing.T) {
	points := []models.SurveyPoint{{ID: 7, Severity: "Medium", Lat: 28.6139, Lng: 77.209}}

	// Keys arrive in UI click order; columns render in registry order.
	export, err := Build(points, []string{"severity", "googleMapsLink", "id"}, models.FilterAll, time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	lines := strings.Split(strings.TrimRight(export.Content, "\n"), "\n")
	if lines[0] != "ID,Severity,Google Maps Link" {
		t.Errorf("header = %q", lines[0])
	}
	// The maps link holds a lat,lng pair, so it is always quoted.
	if lines[1] != `7,Medium,"https://maps.google.com/?q=28.6139,77.209"` {
		t.Errorf("row = %q", lines[1])
	}
}

func TestBuildRejectsEmptyAndUnknownSelections(t *testing.T) {
	points := []models.SurveyPoint{{ID: 1}}

	if _, err := Build(points, nil, models.FilterAll, time.Now()); err == nil {
		t.Error("empty column selection should be rejected")
	}
	if _, err := Build(points, []string{}, models.FilterAll, time.Now()); err == nil {
		t.Error("zero-length column selection should be rejected")
	}
	if _, err := Build(points, []string{"id", "bogus"}, models.FilterAll, time.Now()); err == nil {
		t.Error("unknown column key should be rejected")
	}
}

func TestBuildEmptyDatasetStillHasHeader(t *testing.T) {
	export, err := Build(nil, []string{"id", "severity"}, models.FilterAll, time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if export.Content != "ID,Severity\n" {
		t.Errorf("content = %q, want header only", export.Content)
	}
}

func TestFilename(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	tests := []struct {
		filter   models.Filter
		expected string
	}{
		{models.FilterAll, "nhai_pavement_data_filtered_2025-03-14T092653Z.csv"},
		{models.FilterHigh, "nhai_pavement_data_filtered_high_2025-03-14T092653Z.csv"},
		{models.FilterMedium, "nhai_pavement_data_filtered_medium_2025-03-14T092653Z.csv"},
		{models.FilterLow, "nhai_pavement_data_filtered_low_2025-03-14T092653Z.csv"},
	}

	for _, tc := range tests {
		if got := Filename(tc.filter, at); got != tc.expected {
			t.Errorf("Filename(%q) = %q, want %q", tc.filter, got, tc.expected)
		}
	}

	// Non-UTC input normalizes to UTC in the stamp.
	ist := time.FixedZone("IST", 5*3600+1800)
	local := time.Date(2025, 3, 14, 14, 56, 53, 0, ist)
	if got := Filename(models.FilterAll, local); got != "nhai_pavement_data_filtered_2025-03-14T092653Z.csv" {
		t.Errorf("Filename(local time) = %q, want UTC stamp", got)
	}
}

func TestColumnKeysCoverRegistry(t *testing.T) {
	keys := ColumnKeys()
	if len(keys) != 15 {
		t.Fatalf("got %d column keys, want 15", len(keys))
	}
	if keys[0] != "id" || keys[len(keys)-1] != "googleMapsLink" {
		t.Errorf("registry order changed: first %q, last %q", keys[0], keys[len(keys)-1])
	}

	// Selecting every column must succeed.
	if _, err := Build([]models.SurveyPoint{{ID: 1}}, keys, models.FilterAll, time.Now()); err != nil {
		t.Errorf("Build with all columns: %v", err)
	}
}
