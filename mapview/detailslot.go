package mapview

import "festival-map-cli/model"

// DetailSlot is the single shared holder of the most recently fetched event
// detail. It is only ever touched from the program's update loop, so no
// locking is involved.
//
// The default write policy is last-write-wins: requests are fire-and-forget
// and whichever completes last is shown, even if a newer request is still in
// flight. Setting LatestOnly drops completions from superseded requests, so
// only the most recently issued request can populate the slot.
type DetailSlot struct {
	LatestOnly bool

	latest uint64
	detail *model.EventDetail
}

// Begin registers a new request and returns its generation token.
func (s *DetailSlot) Begin() uint64 {
	s.latest++
	return s.latest
}

// Complete publishes a finished fetch. It reports whether the result was
// applied; under LatestOnly a stale generation is discarded.
func (s *DetailSlot) Complete(gen uint64, detail model.EventDetail) bool {
	if s.LatestOnly && gen != s.latest {
		return false
	}
	copied := detail
	s.detail = &copied
	return true
}

// Clear empties the slot.
func (s *DetailSlot) Clear() {
	s.detail = nil
}

// Current returns the held detail and whether the slot is populated.
func (s *DetailSlot) Current() (model.EventDetail, bool) {
	if s.detail == nil {
		return model.EventDetail{}, false
	}
	return *s.detail, true
}
