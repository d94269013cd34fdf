package mapview

import (
	"testing"

	"festival-map-cli/model"
)

func TestTracker_ObserveOverwritesViewport(t *testing.T) {
	tracker := NewTracker(Viewport{CenterLat: 55.9, CenterLon: -3.2, Zoom: 13})

	tracker.Observe(ViewportEvent{Type: MoveEnd, CenterLat: 55.95, CenterLon: -3.19, Zoom: 13})
	vp := tracker.Current()
	if vp.CenterLat != 55.95 || vp.CenterLon != -3.19 {
		t.Fatalf("moveend should overwrite center, got %+v", vp)
	}

	tracker.Observe(ViewportEvent{Type: ZoomEnd, CenterLat: 55.96, CenterLon: -3.18, Zoom: 15})
	vp = tracker.Current()
	if vp.Zoom != 15 || vp.CenterLat != 55.96 || vp.CenterLon != -3.18 {
		t.Fatalf("zoomend should overwrite center and zoom, got %+v", vp)
	}
}

func TestNearCenter_Thresholds(t *testing.T) {
	vp := Viewport{CenterLat: 0, CenterLon: 0}

	tests := []struct {
		name string
		lat  float64
		lon  float64
		want bool
	}{
		{name: "at center", lat: 0, lon: 0, want: true},
		{name: "lat at boundary", lat: 0.01, lon: 0, want: true},
		{name: "lat past boundary", lat: 0.012, lon: 0, want: false},
		{name: "lon at boundary", lat: 0, lon: -0.03, want: true},
		{name: "lon past boundary", lat: 0, lon: -0.032, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			venue := model.Venue{Id: "v", Lat: tc.lat, Lon: tc.lon}
			if got := NearCenter(venue, vp); got != tc.want {
				t.Fatalf("NearCenter(%f, %f) = %v, want %v", tc.lat, tc.lon, got, tc.want)
			}
		})
	}
}

func TestAlwaysVisible(t *testing.T) {
	venue := model.Venue{Id: "v", Lat: 89.0, Lon: 179.0}
	if !AlwaysVisible(venue, Viewport{}) {
		t.Fatal("AlwaysVisible must pass every venue")
	}
}
