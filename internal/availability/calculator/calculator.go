// Package calculator turns a doctor's weekly availability template into the
// concrete open slots of one calendar day.
package calculator

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	apperrors "drxcare/pkg/errors"
	"drxcare/pkg/model"
)

const dateLayout = "2006-01-02"

type Input struct {
	DoctorID          string
	Date              string // YYYY-MM-DD in the requestor's zone, or an RFC3339 instant
	RequestorTimeZone string
	DoctorTimeZone    string
	Template          model.AvailabilityTemplate
	DurationMin       int
	Bookings          []*model.Booking
}

// Day is a date resolved into the doctor's calendar.
type Day struct {
	Year    int
	Month   time.Month
	Day     int
	Weekday time.Weekday
	Loc     *time.Location
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

type Option func(*Calculator)

// WithClock replaces time.Now, used to decide which slots are in the past.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) { c.now = now }
}

func WithMinDuration(minutes int) Option {
	return func(c *Calculator) { c.minDurationMin = minutes }
}

type Calculator struct {
	now            func() time.Time
	minDurationMin int
}

func New(opts ...Option) *Calculator {
	c := &Calculator{
		now:            time.Now,
		minDurationMin: model.MinConsultationDurationMin,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Calculator) Now() time.Time {
	return c.now()
}

// ComputeSlots returns the open slots of in.Date, expressed in the requestor's
// zone and ordered by start. A weekday without template entries yields an
// empty, non-nil slice.
func (c *Calculator) ComputeSlots(in Input) ([]model.Slot, error) {
	slots, _, err := c.compute(in)
	return slots, err
}

// ComputeDay is ComputeSlots that also reports the resolved doctor-local day.
func (c *Calculator) ComputeDay(in Input) ([]model.Slot, Day, error) {
	return c.compute(in)
}

func (c *Calculator) compute(in Input) ([]model.Slot, Day, error) {
	if in.DurationMin <= 0 {
		return nil, Day{}, apperrors.InvalidConfiguration(fmt.Sprintf("consultation duration must be positive, got %d", in.DurationMin))
	}
	if in.DurationMin < c.minDurationMin {
		return nil, Day{}, apperrors.InvalidConfiguration(fmt.Sprintf("consultation duration must be at least %d minutes, got %d", c.minDurationMin, in.DurationMin))
	}

	doctorLoc, err := LoadDoctorLocation(in.DoctorTimeZone)
	if err != nil {
		return nil, Day{}, err
	}
	requestorLoc := doctorLoc
	if in.RequestorTimeZone != "" {
		requestorLoc, err = time.LoadLocation(in.RequestorTimeZone)
		if err != nil {
			return nil, Day{}, apperrors.InvalidInput(fmt.Sprintf("unknown time zone: %s", in.RequestorTimeZone))
		}
	}

	day, err := ResolveDay(in.Date, requestorLoc, doctorLoc)
	if err != nil {
		return nil, Day{}, err
	}

	ranges := in.Template.RangesFor(day.Weekday)
	duration := time.Duration(in.DurationMin) * time.Minute
	now := c.now()

	slots := make([]model.Slot, 0)
	for _, r := range ranges {
		start, end, err := rangeBounds(day, r)
		if err != nil {
			return nil, Day{}, err
		}
		for s := start; !s.Add(duration).After(end); s = s.Add(duration) {
			slot := model.Slot{Start: s, End: s.Add(duration)}
			if !Open(slot, in.DoctorID, in.Bookings, now) {
				continue
			}
			slots = append(slots, slot.In(requestorLoc))
		}
	}

	slices.SortFunc(slots, func(a, b model.Slot) int {
		return a.Start.Compare(b.Start)
	})
	return slots, day, nil
}

// Open reports whether slot starts strictly after now and intersects no
// held or confirmed booking of doctorID.
func Open(slot model.Slot, doctorID string, bookings []*model.Booking, now time.Time) bool {
	if !slot.Start.After(now) {
		return false
	}
	for _, b := range bookings {
		if b == nil || !b.Status.BlocksSlot() {
			continue
		}
		if doctorID != "" && b.DoctorID != "" && b.DoctorID != doctorID {
			continue
		}
		if slot.Overlaps(b.SlotStart, b.SlotEnd) {
			return false
		}
	}
	return true
}

// ResolveDay maps date, read in requestorLoc, onto the doctor's calendar.
// A bare YYYY-MM-DD is anchored at local noon so that zone offsets of up to
// twelve hours keep the same calendar date.
func ResolveDay(date string, requestorLoc, doctorLoc *time.Location) (Day, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return Day{}, apperrors.InvalidInput("date is required")
	}

	var instant time.Time
	if len(date) == len(dateLayout) {
		d, err := time.ParseInLocation(dateLayout, date, requestorLoc)
		if err != nil {
			return Day{}, apperrors.InvalidInput(fmt.Sprintf("invalid date: %s", date))
		}
		instant = d.Add(12 * time.Hour)
	} else {
		t, err := time.Parse(time.RFC3339, date)
		if err != nil {
			return Day{}, apperrors.InvalidInput(fmt.Sprintf("invalid date: %s", date))
		}
		instant = t
	}

	local := instant.In(doctorLoc)
	return Day{
		Year:    local.Year(),
		Month:   local.Month(),
		Day:     local.Day(),
		Weekday: local.Weekday(),
		Loc:     doctorLoc,
	}, nil
}

// LoadDoctorLocation resolves the doctor's declared zone. An empty zone is UTC.
func LoadDoctorLocation(tz string) (*time.Location, error) {
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, apperrors.InvalidConfiguration(fmt.Sprintf("unknown doctor time zone: %s", tz))
	}
	return loc, nil
}

// ParseClock parses HH:MM into minutes after midnight.
func ParseClock(s string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(h) != 2 || len(m) != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour*60 + minute, nil
}

func rangeBounds(day Day, r model.TimeRange) (time.Time, time.Time, error) {
	startMin, err := ParseClock(r.Start)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.InvalidConfiguration(fmt.Sprintf("invalid availability range start: %v", err))
	}
	endMin, err := ParseClock(r.End)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.InvalidConfiguration(fmt.Sprintf("invalid availability range end: %v", err))
	}
	if startMin == endMin {
		return time.Time{}, time.Time{}, apperrors.InvalidConfiguration(fmt.Sprintf("empty availability range %s-%s", r.Start, r.End))
	}

	endDay := day.Day
	if endMin < startMin {
		endDay++
	}
	start := time.Date(day.Year, day.Month, day.Day, startMin/60, startMin%60, 0, 0, day.Loc)
	end := time.Date(day.Year, day.Month, endDay, endMin/60, endMin%60, 0, 0, day.Loc)
	return start, end, nil
}
