package mapview

import (
	"github.com/apex/log"
	geojson "github.com/paulmach/go.geojson"

	"nsv-dashboard/models"
)

// FeatureCollection renders the points as GeoJSON for map layers that
// draw raw geometry. Each feature carries the fields the point popup
// shows plus the severity color. Points with malformed coordinates are
// skipped with a warning.
func FeatureCollection(points []models.SurveyPoint) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	skipped := 0
	for i := range points {
		p := &points[i]
		if !p.ValidCoordinates() {
			skipped++
			continue
		}
		f := geojson.NewPointFeature([]float64{p.Lng, p.Lat})
		f.SetProperty("id", p.ID)
		f.SetProperty("highway", p.Highway)
		f.SetProperty("lane", p.Lane)
		f.SetProperty("chainage", p.StartChainage)
		f.SetProperty("type", p.Type)
		f.SetProperty("value", p.Value)
		f.SetProperty("unit", p.Unit)
		f.SetProperty("severity", string(p.Severity))
		f.SetProperty("color", p.Severity.Color())
		f.SetProperty("maps_link", p.MapsLink())
		fc.AddFeature(f)
	}
	if skipped > 0 {
		log.Warnf("geojson render skipped %d points with invalid coordinates", skipped)
	}
	return fc
}
