package model

import (
	"encoding/json"
	"time"
)

type RawSchedule struct {
	PlaceId string `json:"place_id"`
	StartTs string `json:"start_ts"`
	EndTs   string `json:"end_ts"`
	// Performances is carried through opaque; only the detail overlay ever
	// looks inside, and it does so server-side.
	Performances json.RawMessage `json:"performances"`
	// Place is a denormalized copy of the venue embedded by the feed.
	// Venue resolution goes through PlaceId, so it is ignored here.
	Place json.RawMessage `json:"place"`
}

type RawEvent struct {
	EventId   string        `json:"event_id"`
	Name      string        `json:"name"`
	Status    string        `json:"status"`
	Schedules []RawSchedule `json:"schedules"`
}

// EventOccurrence is one concrete (event, venue, time window) triple derived
// from a schedule entry. An event with several schedule entries produces
// several occurrences.
type EventOccurrence struct {
	EventId      string
	Name         string
	Status       string
	Start        time.Time
	End          time.Time
	Performances json.RawMessage
	VenueId      string
}

// Catalog is the single static document fetched once per load.
type Catalog struct {
	Places []RawPlace `json:"places"`
	Events []RawEvent `json:"events"`
}
