package usecases

import "github.com/samirrijal/mapsearch/internal/core/domain"

// PlaceholderName is shown for results that carry no name.
const PlaceholderName = "(No name)"

// Render builds the listing for a result set, one entry per hit in the order
// the search service returned them.
func Render(hits []domain.Hit) domain.ListingView {
	entries := make([]domain.ListingEntry, 0, len(hits))
	for _, h := range hits {
		label := h.Source.Name
		if label == "" {
			label = PlaceholderName
		}
		entries = append(entries, domain.ListingEntry{Label: label})
	}
	return domain.ListingView{Entries: entries}
}
