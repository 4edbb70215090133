package models

import (
	"math"
	"testing"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Severity
	}{
		{name: "lowercase high", input: "high", expected: SeverityHigh},
		{name: "uppercase medium", input: "MEDIUM", expected: SeverityMedium},
		{name: "canonical low", input: "Low", expected: SeverityLow},
		{name: "padded", input: "  High  ", expected: SeverityHigh},
		{name: "empty is unknown", input: "", expected: SeverityUnknown},
		{name: "blank is unknown", input: "   ", expected: SeverityUnknown},
		{name: "unrecognized kept verbatim", input: "Severe", expected: Severity("Severe")},
		{name: "unrecognized trimmed", input: " Severe ", expected: Severity("Severe")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseSeverity(tc.input); got != tc.expected {
				t.Errorf("ParseSeverity(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestSeverityColor(t *testing.T) {
	tests := []struct {
		sev      Severity
		expected string
	}{
		{SeverityHigh, "#dc3545"},
		{SeverityMedium, "#fd7e14"},
		{SeverityLow, "#28a745"},
		{Severity("Severe"), SeverityFallbackColor},
		{SeverityUnknown, SeverityFallbackColor},
	}

	for _, tc := range tests {
		if got := tc.sev.Color(); got != tc.expected {
			t.Errorf("Color(%q) = %q, want %q", tc.sev, got, tc.expected)
		}
	}
}

func TestSeverityRankWorstFirst(t *testing.T) {
	if !(SeverityHigh.Rank() < SeverityMedium.Rank() &&
		SeverityMedium.Rank() < SeverityLow.Rank() &&
		SeverityLow.Rank() < Severity("Severe").Rank()) {
		t.Error("rank order should be High < Medium < Low < unrecognized")
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		input    string
		expected Filter
		ok       bool
	}{
		{"", FilterAll, true},
		{"all", FilterAll, true},
		{"All", FilterAll, true},
		{"high", FilterHigh, true},
		{"Medium", FilterMedium, true},
		{"LOW", FilterLow, true},
		{"bogus", "", false},
		{"Severe", "", false},
	}

	for _, tc := range tests {
		got, ok := ParseFilter(tc.input)
		if got != tc.expected || ok != tc.ok {
			t.Errorf("ParseFilter(%q) = (%q, %v), want (%q, %v)", tc.input, got, ok, tc.expected, tc.ok)
		}
	}
}

func TestFilterMatches(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		sev    Severity
		want   bool
	}{
		{"all matches high", FilterAll, SeverityHigh, true},
		{"all matches unknown", FilterAll, SeverityUnknown, true},
		{"all matches unrecognized", FilterAll, Severity("Severe"), true},
		{"high matches high", FilterHigh, SeverityHigh, true},
		{"high rejects medium", FilterHigh, SeverityMedium, false},
		{"high rejects unrecognized", FilterHigh, Severity("Severe"), false},
		{"low matches low", FilterLow, SeverityLow, true},
		{"medium rejects unknown", FilterMedium, SeverityUnknown, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.Matches(tc.sev); got != tc.want {
				t.Errorf("%q.Matches(%q) = %v, want %v", tc.filter, tc.sev, got, tc.want)
			}
		})
	}
}

func TestValidCoordinates(t *testing.T) {
	tests := []struct {
		name string
		lat  float64
		lng  float64
		want bool
	}{
		{"delhi", 28.6139, 77.2090, true},
		{"boundary north", 90, 180, true},
		{"boundary south", -90, -180, true},
		{"lat too big", 90.1, 77, false},
		{"lat too small", -90.1, 77, false},
		{"lng too big", 28, 180.5, false},
		{"lng too small", 28, -180.5, false},
		{"nan lat", math.NaN(), 77, false},
		{"nan lng", 28, math.NaN(), false},
		{"inf lat", math.Inf(1), 77, false},
		{"inf lng", 28, math.Inf(-1), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := SurveyPoint{Lat: tc.lat, Lng: tc.lng}
			if got := p.ValidCoordinates(); got != tc.want {
				t.Errorf("ValidCoordinates(%v, %v) = %v, want %v", tc.lat, tc.lng, got, tc.want)
			}
		})
	}
}

func TestMapsLink(t *testing.T) {
	p := SurveyPoint{Lat: 28.6139, Lng: 77.209}
	want := "https://maps.google.com/?q=28.6139,77.209"
	if got := p.MapsLink(); got != want {
		t.Errorf("MapsLink() = %q, want %q", got, want)
	}
	if got := MapsLink(0, 0); got != "https://maps.google.com/?q=0,0" {
		t.Errorf("MapsLink(0,0) = %q", got)
	}
}

func TestComputeStatistics(t *testing.T) {
	points := []SurveyPoint{
		{Severity: "High", Type: "Rutting", Highway: "NH-44", Lat: 28.6, Lng: 77.2},
		{Severity: "high", Type: "Rutting", Highway: "NH-44", Lat: 28.7, Lng: 77.3},
		{Severity: "Medium", Type: "Cracking", Highway: "NH-48", Lat: 0, Lng: 0},
		{Severity: "Low", Type: "Roughness", Highway: "NH-44", Lat: math.NaN(), Lng: 77.1},
		{Severity: "Severe", Type: "Roughness", Highway: "NH-48", Lat: 28.9, Lng: 77.5},
	}

	stats := ComputeStatistics(points)

	if stats.Total != 5 {
		t.Errorf("Total = %d, want 5", stats.Total)
	}
	if stats.High != 2 || stats.Medium != 1 || stats.Low != 1 {
		t.Errorf("bands = %d/%d/%d, want 2/1/1", stats.High, stats.Medium, stats.Low)
	}
	if stats.SeverityDistribution["High"] != 2 {
		t.Errorf("distribution High = %d, want 2", stats.SeverityDistribution["High"])
	}
	if stats.SeverityDistribution["Severe"] != 1 {
		t.Errorf("unrecognized band missing from distribution: %v", stats.SeverityDistribution)
	}
	if stats.ByType["Rutting"]["high"] != 2 {
		t.Errorf("ByType Rutting = %v, want high:2", stats.ByType["Rutting"])
	}
	if stats.ByHighway["NH-48"]["medium"] != 1 {
		t.Errorf("ByHighway NH-48 = %v, want medium:1", stats.ByHighway["NH-48"])
	}
	if stats.CoordinatesAvailable != 4 {
		t.Errorf("CoordinatesAvailable = %d, want 4 (NaN point excluded)", stats.CoordinatesAvailable)
	}
}
