package mapview

import (
	"strconv"
	"strings"

	"festival-map-cli/model"
)

// BuildReport counts records that were excluded during an index build.
// Exclusion is never fatal: a malformed record is dropped and the rest of
// the build continues.
type BuildReport struct {
	Malformed int
}

// Capacity lives under varying property keys depending on feed vintage.
var capacityKeys = []string{"place.capacity.max", "capacity.max", "capacity"}

// BuildVenueIndex normalizes raw place records into a venue lookup keyed by
// place id. Records without a parsable location are counted and skipped.
// When the feed repeats a place id, the last record wins.
func BuildVenueIndex(places []model.RawPlace) (map[string]model.Venue, BuildReport) {
	index := make(map[string]model.Venue, len(places))
	var report BuildReport
	for _, place := range places {
		venue, ok := normalizeVenue(place)
		if !ok {
			report.Malformed++
			continue
		}
		index[venue.Id] = venue
	}
	return index, report
}

func normalizeVenue(place model.RawPlace) (model.Venue, bool) {
	if place.PlaceId == "" || place.Loc == nil {
		return model.Venue{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(place.Loc.Latitude), 64)
	if err != nil {
		return model.Venue{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(place.Loc.Longitude), 64)
	if err != nil {
		return model.Venue{}, false
	}

	capacity, hasCapacity := parseCapacity(place.Properties)
	return model.Venue{
		Id:           place.PlaceId,
		Name:         place.Name,
		Address:      place.Address,
		Town:         place.Town,
		Lat:          lat,
		Lon:          lon,
		Tags:         place.Tags,
		Capacity:     capacity,
		HasCapacity:  hasCapacity,
		Descriptions: place.Descriptions,
	}, true
}

// parseCapacity resolves the first populated capacity key. A present but
// unparsable value means the venue has no usable capacity; later keys are
// not consulted.
func parseCapacity(properties map[string]string) (int, bool) {
	for _, key := range capacityKeys {
		raw := strings.TrimSpace(properties[key])
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return 0, false
		}
		return value, true
	}
	return 0, false
}
