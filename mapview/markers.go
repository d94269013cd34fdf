package mapview

import (
	"sort"

	"festival-map-cli/model"
)

// Marker pairs a venue with the occurrences that survived filtering.
// Occurrences is never empty.
type Marker struct {
	Venue       model.Venue
	Occurrences []model.EventOccurrence
}

// VisibleMarkers recomputes the renderable marker set from the four pipeline
// inputs. Callers invoke it on every change to any input; it never caches.
// Output is sorted by venue id so consecutive recomputes over the same data
// diff cleanly.
func VisibleMarkers(
	venues map[string]model.Venue,
	eventsByVenue map[string][]model.EventOccurrence,
	r DateRange,
	vp Viewport,
	policy ProximityPolicy,
) []Marker {
	if policy == nil {
		policy = AlwaysVisible
	}

	ids := make([]string, 0, len(eventsByVenue))
	for id := range eventsByVenue {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var markers []Marker
	for _, id := range ids {
		venue, ok := venues[id]
		if !ok {
			// Dangling venue reference; excluded, not an error.
			continue
		}
		occurrences := FilterByRange(eventsByVenue[id], r)
		if len(occurrences) == 0 {
			continue
		}
		if !policy(venue, vp) {
			continue
		}
		markers = append(markers, Marker{Venue: venue, Occurrences: occurrences})
	}
	return markers
}
