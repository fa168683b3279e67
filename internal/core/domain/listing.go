package domain

// ListingEntry is one line of the rendered result list.
type ListingEntry struct {
	Label string `json:"label"`
}

// ListingView is the full rendered state of the result list. It is always
// replaced as a whole, never patched.
type ListingView struct {
	Entries []ListingEntry `json:"entries"`
	Error   string         `json:"error,omitempty"`
}

// Labels returns the entry labels in display order.
func (v ListingView) Labels() []string {
	out := make([]string, len(v.Entries))
	for i, e := range v.Entries {
		out[i] = e.Label
	}
	return out
}

// Marker is a circle drawn on the map for a seeded record.
type Marker struct {
	RecordID    string   `json:"record_id,omitempty"`
	Position    GeoPoint `json:"position"`
	Color       string   `json:"color"`
	FillOpacity float64  `json:"fill_opacity"`
	Radius      int      `json:"radius"`
}
