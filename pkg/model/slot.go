package model

import "time"

// Slot is a computed candidate interval, half-open [Start, End).
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (s Slot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

func (s Slot) Overlaps(start, end time.Time) bool {
	return s.Start.Before(end) && start.Before(s.End)
}

func (s Slot) In(loc *time.Location) Slot {
	return Slot{Start: s.Start.In(loc), End: s.End.In(loc)}
}

type AvailableSlots struct {
	DoctorID    string `json:"doctor_id"`
	Date        string `json:"date"`
	TimeZone    string `json:"time_zone"`
	DurationMin int    `json:"duration_min"`
	Slots       []Slot `json:"slots"`
}
