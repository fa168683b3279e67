package memory

import (
	"sync"

	"github.com/samirrijal/mapsearch/internal/core/domain"
)

// LoadErrorMessage is the text surfaced when a refresh fails.
const LoadErrorMessage = "unable to load results"

// Listing is an in-process ListingSink holding the current view. An optional
// callback is invoked with every new view while the lock is held, so
// observers see views in the order they were applied.
type Listing struct {
	mu       sync.Mutex
	view     domain.ListingView
	onChange func(domain.ListingView)
}

// NewListing creates an empty listing. onChange may be nil.
func NewListing(onChange func(domain.ListingView)) *Listing {
	return &Listing{
		view:     domain.ListingView{Entries: []domain.ListingEntry{}},
		onChange: onChange,
	}
}

// Apply replaces the whole listing.
func (l *Listing) Apply(view domain.ListingView) {
	if view.Entries == nil {
		view.Entries = []domain.ListingEntry{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.view = view
	l.notify()
}

// Fail keeps the current entries and flags the load error.
func (l *Listing) Fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.view.Error = LoadErrorMessage
	l.notify()
}

// View returns a copy of the current listing.
func (l *Listing) View() domain.ListingView {
	l.mu.Lock()
	defer l.mu.Unlock()
	v := l.view
	v.Entries = append([]domain.ListingEntry(nil), l.view.Entries...)
	return v
}

func (l *Listing) notify() {
	if l.onChange != nil {
		l.onChange(l.view)
	}
}
