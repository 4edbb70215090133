package models

import (
	"math"
	"strings"
)

// Severity is the band the backend assigns to a measurement from its
// value/limit ratio. It arrives as a free string; the three known bands
// are normalized and anything else is carried verbatim so it stays
// visible instead of being folded into a known band.
type Severity string

const (
	SeverityHigh    Severity = "High"
	SeverityMedium  Severity = "Medium"
	SeverityLow     Severity = "Low"
	SeverityUnknown Severity = "Unknown"
)

// SeverityFallbackColor marks severities outside the three known bands.
const SeverityFallbackColor = "#6c757d"

var severityColors = map[Severity]string{
	SeverityHigh:   "#dc3545",
	SeverityMedium: "#fd7e14",
	SeverityLow:    "#28a745",
}

// ParseSeverity normalizes a backend severity string.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return SeverityHigh
	case "medium":
		return SeverityMedium
	case "low":
		return SeverityLow
	case "":
		return SeverityUnknown
	}
	return Severity(strings.TrimSpace(s))
}

// Color returns the marker color for the band.
func (s Severity) Color() string {
	if c, ok := severityColors[s]; ok {
		return c
	}
	return SeverityFallbackColor
}

// Rank orders bands worst-first (High before Medium before Low before
// anything unrecognized), used when a map cell rolls up to one color.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	case SeverityLow:
		return 2
	}
	return 3
}

// Filter selects which severities the list view shows.
type Filter string

const (
	FilterAll    Filter = "All"
	FilterHigh   Filter = "High"
	FilterMedium Filter = "Medium"
	FilterLow    Filter = "Low"
)

// ParseFilter maps a query value to a list filter. The empty string means
// All; ok is false for anything outside the four filter buttons.
func ParseFilter(s string) (Filter, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, true
	case "high":
		return FilterHigh, true
	case "medium":
		return FilterMedium, true
	case "low":
		return FilterLow, true
	}
	return "", false
}

// Matches reports whether a point with the given severity passes the
// filter. Unrecognized severities pass only the All filter.
func (f Filter) Matches(sev Severity) bool {
	return f == FilterAll || Severity(f) == sev
}

// SurveyPoint is one lane-level distress measurement as the survey
// backend reports it.
type SurveyPoint struct {
	ID            int      `json:"id"`
	Lat           float64  `json:"lat"`
	Lng           float64  `json:"lng"`
	Highway       string   `json:"highway"`
	Lane          string   `json:"lane"`
	StartChainage string   `json:"startChainage"`
	EndChainage   string   `json:"endChainage"`
	Structure     string   `json:"structure"`
	Type          string   `json:"type"`
	Value         float64  `json:"value"`
	Unit          string   `json:"unit"`
	Severity      Severity `json:"severity"`
	Limit         float64  `json:"limit"`
	Datetime      string   `json:"datetime"`
}

// ValidCoordinates reports whether the point carries a usable WGS84
// position. Points failing this are skipped by map rendering with a
// warning; they keep their place in the list.
func (p *SurveyPoint) ValidCoordinates() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// MapsLink is the Google Maps URL for the point, also used by the CSV
// export and the share QR code.
func (p *SurveyPoint) MapsLink() string {
	return MapsLink(p.Lat, p.Lng)
}

// Statistics is the severity breakdown shown in the dashboard header.
// The backend sends a richer object; the extra distributions are passed
// through untouched.
type Statistics struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`

	ByType               map[string]map[string]int `json:"by_type,omitempty"`
	ByHighway            map[string]map[string]int `json:"by_highway,omitempty"`
	SeverityDistribution map[string]int            `json:"severity_distribution,omitempty"`
	CoordinatesAvailable int                       `json:"coordinates_available,omitempty"`
}

// ComputeStatistics recomputes the severity breakdown locally, used when
// the view derives a filtered subset without a backend round trip.
func ComputeStatistics(points []SurveyPoint) Statistics {
	stats := Statistics{
		Total:                len(points),
		ByType:               map[string]map[string]int{},
		ByHighway:            map[string]map[string]int{},
		SeverityDistribution: map[string]int{},
	}
	for i := range points {
		p := &points[i]
		sev := ParseSeverity(string(p.Severity))
		switch sev {
		case SeverityHigh:
			stats.High++
		case SeverityMedium:
			stats.Medium++
		case SeverityLow:
			stats.Low++
		}
		stats.SeverityDistribution[string(sev)]++
		if p.Type != "" {
			bucket := stats.ByType[p.Type]
			if bucket == nil {
				bucket = map[string]int{}
				stats.ByType[p.Type] = bucket
			}
			bucket[strings.ToLower(string(sev))]++
		}
		if p.Highway != "" {
			bucket := stats.ByHighway[p.Highway]
			if bucket == nil {
				bucket = map[string]int{}
				stats.ByHighway[p.Highway] = bucket
			}
			bucket[strings.ToLower(string(sev))]++
		}
		if p.ValidCoordinates() {
			stats.CoordinatesAvailable++
		}
	}
	return stats
}
