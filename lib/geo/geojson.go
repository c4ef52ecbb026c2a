// Package geo renders tracked aircraft as GeoJSON for map frontends and
// answers the small geometric questions (distance to a point, inside a
// bounding box) the alerting tooling asks.
package geo

import (
	"fmt"

	"github.com/kpawlik/geojson"
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"

	"github.com/jetwatch/modes/lib/report"
)

// Bounds is an optional lon/lat window used to clip the rendered set.
type Bounds struct {
	MinLon, MinLat, MaxLon, MaxLat float64
}

func (b Bounds) bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

// DistanceMeters returns the great-circle distance between two lon/lat
// points.
func DistanceMeters(lon1, lat1, lon2, lat2 float64) float64 {
	return orbgeo.Distance(orb.Point{lon1, lat1}, orb.Point{lon2, lat2})
}

// FeatureCollection renders every positioned report as a GeoJSON Point
// feature. Reports without a position are skipped; bounds, when non-nil,
// clips to the window.
func FeatureCollection(reports []report.Report, bounds *Bounds) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection(nil)
	for _, r := range reports {
		if r.Lat == nil || r.Lon == nil {
			continue
		}
		if bounds != nil && !bounds.bound().Contains(orb.Point{*r.Lon, *r.Lat}) {
			continue
		}

		props := map[string]interface{}{
			"icao":      r.Icao,
			"type":      r.Type,
			"time_ms":   r.TimeMs,
			"on_ground": r.OnGround,
		}
		if r.Tag != "" {
			props["tag"] = r.Tag
		}
		if r.Callsign != nil {
			props["callsign"] = *r.Callsign
		}
		if r.AltFeet != nil {
			props["alt_ft"] = *r.AltFeet
		}
		if r.SpeedKts != nil {
			props["speed_kts"] = *r.SpeedKts
		}
		if r.Heading != nil {
			props["heading"] = *r.Heading
		}
		if r.Squawk != nil {
			props["squawk"] = fmt.Sprintf("%04d", *r.Squawk)
		}

		pt := geojson.NewPoint(geojson.Coordinate{
			geojson.Coord(*r.Lon),
			geojson.Coord(*r.Lat),
		})
		fc.AddFeatures(geojson.NewFeature(pt, props, r.Icao))
	}
	return fc
}

// Marshal renders a feature collection as a GeoJSON document.
func Marshal(fc *geojson.FeatureCollection) (string, error) {
	return geojson.Marshal(fc)
}
