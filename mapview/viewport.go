package mapview

import (
	"math"

	"festival-map-cli/model"
)

type Viewport struct {
	CenterLat float64
	CenterLon float64
	Zoom      int
}

type ViewportEventType string

const (
	ZoomEnd ViewportEventType = "zoomend"
	MoveEnd ViewportEventType = "moveend"
)

// ViewportEvent mirrors the map widget's change notification.
type ViewportEvent struct {
	Type      ViewportEventType
	CenterLat float64
	CenterLon float64
	Zoom      int
}

// Tracker holds the current viewport. Both event kinds overwrite the whole
// viewport with the widget's reported values; the pipeline only ever reads.
type Tracker struct {
	current Viewport
}

func NewTracker(initial Viewport) *Tracker {
	return &Tracker{current: initial}
}

func (t *Tracker) Observe(ev ViewportEvent) {
	t.current = Viewport{
		CenterLat: ev.CenterLat,
		CenterLon: ev.CenterLon,
		Zoom:      ev.Zoom,
	}
}

func (t *Tracker) Current() Viewport {
	return t.current
}

// ProximityPolicy decides whether a venue passes the viewport gate. Which
// policy applies is a product decision that has flipped between releases,
// so it stays pluggable rather than hard-coded.
type ProximityPolicy func(venue model.Venue, vp Viewport) bool

// AlwaysVisible is the default policy: the viewport never hides a marker.
func AlwaysVisible(model.Venue, Viewport) bool { return true }

const (
	nearCenterLatDelta = 0.01
	nearCenterLonDelta = 0.03
)

// NearCenter keeps only venues close to the viewport center.
func NearCenter(venue model.Venue, vp Viewport) bool {
	return math.Abs(venue.Lat-vp.CenterLat) <= nearCenterLatDelta &&
		math.Abs(venue.Lon-vp.CenterLon) <= nearCenterLonDelta
}
