package domain

// SearchQuery is the structured body sent to the search endpoint.
type SearchQuery struct {
	Query QueryClause `json:"query"`
}

// QueryClause wraps the top-level bool query.
type QueryClause struct {
	Bool BoolQuery `json:"bool"`
}

// BoolQuery combines a scoring clause with a non-scoring filter.
type BoolQuery struct {
	Must   MustClause   `json:"must"`
	Filter FilterClause `json:"filter"`
}

// MustClause only ever holds match_all.
type MustClause struct {
	MatchAll struct{} `json:"match_all"`
}

// FilterClause only ever holds a geo bounding box.
type FilterClause struct {
	GeoBoundingBox GeoBoundingBoxFilter `json:"geo_bounding_box"`
}

// GeoBoundingBoxFilter restricts the location field to a rectangle.
type GeoBoundingBoxFilter struct {
	Location BoxCorners `json:"location"`
}

// BoxCorners holds the four edges in search-engine vocabulary.
type BoxCorners struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Bottom float64 `json:"bottom"`
	Right  float64 `json:"right"`
}
