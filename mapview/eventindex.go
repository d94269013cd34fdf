package mapview

import (
	"strings"
	"time"

	"festival-map-cli/model"
)

// BuildEventIndex flattens raw events into occurrences grouped by venue id.
// Each schedule entry yields one occurrence combining event-level and
// schedule-level fields, appended in ingestion order under the schedule's
// place id. Venue ids with no matching venue are retained here; resolution
// against known venues happens in VisibleMarkers.
func BuildEventIndex(events []model.RawEvent) (map[string][]model.EventOccurrence, BuildReport) {
	index := make(map[string][]model.EventOccurrence)
	var report BuildReport
	for _, event := range events {
		if event.EventId == "" {
			report.Malformed++
			continue
		}
		for _, schedule := range event.Schedules {
			start, err := parseInstant(schedule.StartTs)
			if err != nil {
				report.Malformed++
				continue
			}
			// End timestamps are best-effort; some feeds omit them.
			end, _ := parseInstant(schedule.EndTs)

			index[schedule.PlaceId] = append(index[schedule.PlaceId], model.EventOccurrence{
				EventId:      event.EventId,
				Name:         event.Name,
				Status:       event.Status,
				Start:        start,
				End:          end,
				Performances: schedule.Performances,
				VenueId:      schedule.PlaceId,
			})
		}
	}
	return index, report
}

func parseInstant(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339, strings.TrimSpace(raw))
}
