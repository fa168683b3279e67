package usecases

import "github.com/samirrijal/mapsearch/internal/core/domain"

// BuildQuery maps a viewport onto a match-all query constrained to the box.
func BuildQuery(bbox domain.BoundingBox) domain.SearchQuery {
	nw, se := bbox.NorthWest(), bbox.SouthEast()

	var q domain.SearchQuery
	q.Query.Bool.Filter.GeoBoundingBox.Location = domain.BoxCorners{
		Top:    nw.Lat,
		Left:   nw.Lon,
		Bottom: se.Lat,
		Right:  se.Lon,
	}
	return q
}
