package models

import "fmt"

const (
	firstSlotHour = 8
	lastSlotHour  = 20
)

// Court describes one of the club's courts. The set of courts is fixed; the
// only thing distinguishing them is whether their hourly slots start on the
// hour or on the half hour.
type Court struct {
	ID          string
	Name        string
	StartMinute int // 0 or 30
}

// Courts is the club's full catalog. Courts one and two run on the half
// hour, three and four on the hour.
var Courts = []Court{
	{ID: "clay-1", Name: "Clay 1", StartMinute: 30},
	{ID: "clay-2", Name: "Clay 2", StartMinute: 30},
	{ID: "clay-3", Name: "Clay 3", StartMinute: 0},
	{ID: "clay-4", Name: "Clay 4", StartMinute: 0},
}

// CourtByID looks up a court in the catalog.
func CourtByID(id string) (Court, bool) {
	for _, court := range Courts {
		if court.ID == id {
			return court, true
		}
	}
	return Court{}, false
}

// AllowedStartTimes returns the bookable "HH:MM" starts for the court, one
// per hour from 8 through 20 — thirteen slots per day.
func (c Court) AllowedStartTimes() []string {
	times := make([]string, 0, lastSlotHour-firstSlotHour+1)
	for hour := firstSlotHour; hour <= lastSlotHour; hour++ {
		times = append(times, fmt.Sprintf("%02d:%02d", hour, c.StartMinute))
	}
	return times
}
