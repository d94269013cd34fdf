package mapview

import (
	"time"

	"festival-map-cli/model"
)

// DateRange is the user-controlled filter window. No ordering is enforced:
// Start after End is a valid range that matches nothing.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// FilterByRange keeps occurrences whose start instant falls inside r,
// inclusive at both ends. Order is preserved; the result is nil when
// nothing matches.
func FilterByRange(occurrences []model.EventOccurrence, r DateRange) []model.EventOccurrence {
	var matched []model.EventOccurrence
	for _, occ := range occurrences {
		if occ.Start.Before(r.Start) || occ.Start.After(r.End) {
			continue
		}
		matched = append(matched, occ)
	}
	return matched
}
