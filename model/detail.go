package model

type NearbyStop struct {
	StopName           string  `json:"stop_name"`
	StopLocality       string  `json:"stop_locality"`
	Latitude           float64 `json:"latitude"`
	Longitude          float64 `json:"longitude"`
	DistanceMeters     int     `json:"distance_meters"`
	ExpectedPassengers int     `json:"expected_passengers"`
	PercentageOfTotal  float64 `json:"percentage_of_total"`
	BusServices        string  `json:"bus_services"`
}

// EventDetail is the payload of the live detail endpoint. NearbyStops is
// optional; an absent or empty list means no secondary data for the event.
type EventDetail struct {
	EventName          string       `json:"event_name"`
	VenueName          string       `json:"venue_name"`
	VenueTown          string       `json:"venue_town"`
	ExpectedAttendance int          `json:"expected_attendance"`
	NearbyStops        []NearbyStop `json:"nearby_stops"`
	TotalStops         int          `json:"total_stops_within_300m"`
	TotalExpected      int          `json:"total_expected_passengers"`
}
