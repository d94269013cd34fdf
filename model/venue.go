package model

// RawLocation is the nested location object of a raw place record. The feed
// serializes coordinates as strings.
type RawLocation struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

type Description struct {
	Kind string `json:"kind"`
	Text string `json:"description"`
}

type RawPlace struct {
	PlaceId      string            `json:"place_id"`
	Name         string            `json:"name"`
	Address      string            `json:"address"`
	Town         string            `json:"town"`
	Tags         []string          `json:"tags"`
	Loc          *RawLocation      `json:"loc"`
	Properties   map[string]string `json:"properties"`
	Descriptions []Description     `json:"descriptions"`
}

// Venue is a normalized place record. Immutable after ingestion; identified
// by Id.
type Venue struct {
	Id           string
	Name         string
	Address      string
	Town         string
	Lat          float64
	Lon          float64
	Tags         []string
	Capacity     int
	HasCapacity  bool
	Descriptions []Description
}

// PrimaryDescription returns the first description text, with a fixed
// default when the record carries none.
func (v Venue) PrimaryDescription() string {
	for _, d := range v.Descriptions {
		if d.Text != "" {
			return d.Text
		}
	}
	return "No description available"
}
