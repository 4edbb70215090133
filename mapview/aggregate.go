// Package mapview supplies the dashboard map layer: viewport-scaled
// marker aggregation, GeoJSON rendering and the share QR code.
package mapview

import (
	"github.com/apex/log"
	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"nsv-dashboard/models"
)

type aggrUnit struct {
	cnt      int
	origCell s2.CellID
	worst    models.Severity
}

// Aggregator buckets survey points into S2 cells sized so a viewport
// shows a workable number of markers.
type Aggregator struct {
	level int
	aggrs map[s2.CellID]*aggrUnit
	order []s2.CellID
}

const (
	expectedCells = 160
	minLevel      = 6
	maxLevel      = 16
)

func cellBaseLevel(vp models.ViewPort) int {
	minLL := s2.LatLngFromDegrees(vp.SWLat, vp.SWLng)
	maxLL := s2.LatLngFromDegrees(vp.NELat, vp.NELng)

	rect := s2.Rect{
		Lat: r1.Interval{
			Lo: minLL.Lat.Radians(),
			Hi: maxLL.Lat.Radians()},
		Lng: s1.Interval{
			Lo: minLL.Lng.Radians(),
			Hi: maxLL.Lng.Radians()},
	}

	vpArea := rect.Area()

	center := s2.CellIDFromLatLng(s2.LatLngFromDegrees(
		(vp.SWLat+vp.NELat)/2, (vp.SWLng+vp.NELng)/2))

	for lv := maxLevel; lv >= minLevel; lv-- {
		cc := s2.CellFromCellID(center.Parent(lv))
		if vpArea/cc.ApproxArea() < expectedCells {
			return lv
		}
	}
	return minLevel // Large enough level
}

// NewAggregator sizes cells for the viewport.
func NewAggregator(vp models.ViewPort) *Aggregator {
	return &Aggregator{
		level: cellBaseLevel(vp),
		aggrs: make(map[s2.CellID]*aggrUnit),
	}
}

// AddPoint folds one point into its cell, keeping the worst severity seen
// there.
func (a *Aggregator) AddPoint(lat, lng float64, sev models.Severity) {
	pc := s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lng))
	parent := pc.Parent(a.level)
	unit, ok := a.aggrs[parent]
	if !ok {
		unit = &aggrUnit{worst: sev}
		a.aggrs[parent] = unit
		a.order = append(a.order, parent)
	}
	unit.cnt++
	unit.origCell = pc
	if sev.Rank() < unit.worst.Rank() {
		unit.worst = sev
	}
}

// Markers renders the cells. A cell holding a single point keeps that
// point's exact position instead of the cell center.
func (a *Aggregator) Markers() []models.MapMarker {
	markers := make([]models.MapMarker, 0, len(a.aggrs))
	for _, c := range a.order {
		unit := a.aggrs[c]
		ll := c.LatLng()
		if unit.cnt == 1 {
			ll = unit.origCell.LatLng()
		}
		markers = append(markers, models.MapMarker{
			Lat:      ll.Lat.Degrees(),
			Lng:      ll.Lng.Degrees(),
			Count:    unit.cnt,
			Severity: unit.worst,
			Color:    unit.worst.Color(),
		})
	}
	return markers
}

// Aggregate buckets the points falling inside the viewport. Points with
// malformed coordinates are skipped with a warning and never abort the
// render.
func Aggregate(points []models.SurveyPoint, vp models.ViewPort) []models.MapMarker {
	a := NewAggregator(vp)
	skipped := 0
	for i := range points {
		p := &points[i]
		if !p.ValidCoordinates() {
			skipped++
			continue
		}
		if !contains(vp, p.Lat, p.Lng) {
			continue
		}
		a.AddPoint(p.Lat, p.Lng, models.ParseSeverity(string(p.Severity)))
	}
	if skipped > 0 {
		log.Warnf("map aggregation skipped %d points with invalid coordinates", skipped)
	}
	return a.Markers()
}

// contains checks the viewport rectangle; a zero viewport means the whole
// dataset.
func contains(vp models.ViewPort, lat, lng float64) bool {
	if vp == (models.ViewPort{}) {
		return true
	}
	return lat >= vp.SWLat && lat <= vp.NELat && lng >= vp.SWLng && lng <= vp.NELng
}
