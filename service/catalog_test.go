package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetCatalog_OK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/thistle_data.json" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "places": [
    {
      "place_id": "v1",
      "name": "Assembly Hall",
      "town": "Edinburgh",
      "loc": {"latitude": "55.9519", "longitude": "-3.1959"},
      "properties": {"capacity": "420"}
    }
  ],
  "events": [
    {
      "event_id": "e1",
      "name": "Late Cabaret",
      "status": "scheduled",
      "schedules": [
        {"place_id": "v1", "start_ts": "2024-08-01T22:00:00Z", "end_ts": "2024-08-01T23:30:00Z"}
      ]
    }
  ]
}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), Config{CatalogURL: server.URL + "/thistle_data.json"})

	catalog, err := client.GetCatalog(context.Background())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(catalog.Places) != 1 || catalog.Places[0].PlaceId != "v1" {
		t.Fatalf("unexpected places: %+v", catalog.Places)
	}
	if len(catalog.Events) != 1 || len(catalog.Events[0].Schedules) != 1 {
		t.Fatalf("unexpected events: %+v", catalog.Events)
	}
	if catalog.Events[0].Schedules[0].PlaceId != "v1" {
		t.Fatalf("unexpected schedule: %+v", catalog.Events[0].Schedules[0])
	}
}

func TestGetEventDetail_OK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/event/e1" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "event_name": "Late Cabaret",
  "venue_name": "Assembly Hall",
  "venue_town": "Edinburgh",
  "expected_attendance": 380,
  "nearby_stops": [
    {
      "stop_name": "Mound",
      "stop_locality": "Edinburgh",
      "latitude": 55.9515,
      "longitude": -3.1955,
      "distance_meters": 120,
      "expected_passengers": 95,
      "percentage_of_total": 52.8,
      "bus_services": "23, 27"
    }
  ],
  "total_stops_within_300m": 1,
  "total_expected_passengers": 95
}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), Config{DetailBaseURL: server.URL})

	detail, err := client.GetEventDetail(context.Background(), "e1")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if detail.EventName != "Late Cabaret" {
		t.Fatalf("unexpected event name: %s", detail.EventName)
	}
	if len(detail.NearbyStops) != 1 || detail.NearbyStops[0].StopName != "Mound" {
		t.Fatalf("unexpected stops: %+v", detail.NearbyStops)
	}
	if detail.TotalExpected != 95 {
		t.Fatalf("unexpected passenger total: %d", detail.TotalExpected)
	}
}

func TestGetEventDetail_NoSecondaryData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "event_name": "Quiet Reading",
  "venue_name": "Library Bar",
  "venue_town": "Edinburgh",
  "expected_attendance": 12,
  "nearby_stops": [],
  "total_stops_within_300m": 0,
  "total_expected_passengers": 0
}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), Config{DetailBaseURL: server.URL})

	detail, err := client.GetEventDetail(context.Background(), "e2")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(detail.NearbyStops) != 0 {
		t.Fatalf("expected no stops, got %+v", detail.NearbyStops)
	}
}

func TestGetEventDetail_EscapesEventId(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/event/ev%2F1" {
			t.Fatalf("unexpected path: %s", r.URL.EscapedPath())
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"event_name": "Slashy"}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), Config{DetailBaseURL: server.URL})

	if _, err := client.GetEventDetail(context.Background(), "ev/1"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestGetEventDetail_RequiresEventId(t *testing.T) {
	client := NewClient(nil, Config{})
	if _, err := client.GetEventDetail(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty event id")
	}
}

func TestGetJSON_SingleAttemptByDefault(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	client := NewClient(server.Client(), Config{CatalogURL: server.URL})

	_, err := client.GetCatalog(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestGetJSON_RetriesTransientServerErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := atomic.AddInt32(&attempts, 1)
		if current < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("retry later"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"places": [], "events": []}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), Config{CatalogURL: server.URL, MaxAttempts: 3})
	client.retryBase = time.Millisecond
	client.retryCap = 2 * time.Millisecond

	if _, err := client.GetCatalog(context.Background()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestGetJSON_DoesNotRetryOnClientErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("no such event"))
	}))
	defer server.Close()

	client := NewClient(server.Client(), Config{DetailBaseURL: server.URL, MaxAttempts: 3})
	client.retryBase = time.Millisecond
	client.retryCap = 2 * time.Millisecond

	_, err := client.GetEventDetail(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}
