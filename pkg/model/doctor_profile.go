package model

import (
	"strconv"
	"time"
)

const MinConsultationDurationMin = 15

// TimeRange is a local wall-clock range in HH:MM. Start after End means the
// range runs past midnight into the next day.
type TimeRange struct {
	Start string `json:"start" bson:"start" validate:"required,hhmm"`
	End   string `json:"end" bson:"end" validate:"required,hhmm"`
}

// AvailabilityTemplate maps a weekday index ("0" = Sunday .. "6" = Saturday)
// to its ranges.
type AvailabilityTemplate map[string][]TimeRange

func (t AvailabilityTemplate) RangesFor(day time.Weekday) []TimeRange {
	if t == nil {
		return nil
	}
	return t[strconv.Itoa(int(day))]
}

// DoctorProfile is the public profile record of a doctor.
type DoctorProfile struct {
	ID                      string               `json:"id" bson:"_id"`
	DisplayName             string               `json:"display_name,omitempty" bson:"display_name,omitempty"`
	TimeZone                string               `json:"time_zone" bson:"time_zone"`
	ConsultationDurationMin int                  `json:"consultation_duration_min" bson:"consultation_duration_min"`
	ConsultationPrice       int64                `json:"consultation_price,omitempty" bson:"consultation_price,omitempty"`
	Currency                string               `json:"currency,omitempty" bson:"currency,omitempty"`
	Availability            AvailabilityTemplate `json:"availability,omitempty" bson:"availability,omitempty"`
	Verification            *VerificationStatus  `json:"verification,omitempty" bson:"verification,omitempty"`
}
