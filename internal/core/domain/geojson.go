package domain

// FeatureCollection is a GeoJSON export, such as an Overpass query result.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single GeoJSON feature with point geometry.
type Feature struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   Geometry       `json:"geometry"`
}

// Geometry holds point coordinates in [lon, lat] order.
type Geometry struct {
	Type        string `json:"type"`
	Coordinates LonLat `json:"coordinates"`
}
