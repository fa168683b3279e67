package geospatial

import (
	"math"

	"github.com/samirrijal/mapsearch/internal/core/domain"
)

// metersPerDegree is the length of one degree of latitude.
const metersPerDegree = 111320.0

// BoundingBox returns the box enclosing a circle of radiusMeters around a
// point. Latitudes are clamped to ±90 and longitudes to ±180; the box never
// wraps the anti-meridian.
func BoundingBox(lat, lon, radiusMeters float64) domain.BoundingBox {
	latDelta := radiusMeters / metersPerDegree
	lonDelta := radiusMeters / (metersPerDegree * math.Cos(toRad(lat)))

	return domain.BoundingBox{
		North: math.Min(lat+latDelta, 90),
		West:  math.Max(lon-lonDelta, -180),
		South: math.Max(lat-latDelta, -90),
		East:  math.Min(lon+lonDelta, 180),
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
