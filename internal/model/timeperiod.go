package model

import "time"

type TimeperiodType string

const (
	TimeperiodWorkingHour TimeperiodType = "working_hour"
	TimeperiodBreaktime   TimeperiodType = "breaktime"
	TimeperiodBlocked     TimeperiodType = "blocked"
	TimeperiodOff         TimeperiodType = "off"
)

// BlockingTimeperiodTypes are the types subtracted from working hours when
// computing availability.
var BlockingTimeperiodTypes = []TimeperiodType{
	TimeperiodBreaktime,
	TimeperiodBlocked,
	TimeperiodOff,
}

func (t TimeperiodType) Valid() bool {
	switch t {
	case TimeperiodWorkingHour, TimeperiodBreaktime, TimeperiodBlocked, TimeperiodOff:
		return true
	}
	return false
}

func (t TimeperiodType) Blocking() bool {
	return t.Valid() && t != TimeperiodWorkingHour
}

// Timeperiod is a typed half-open interval [From, To) on one calendar.
// Booking-derived periods (type blocked, appointment_id in metadata) are never
// mutated in place; a moved booking deletes and recreates its period.
type Timeperiod struct {
	ID         string
	CalendarID string
	Type       TimeperiodType
	From       time.Time
	To         time.Time
	Title      string
	Metadata   map[string]any
	CreatedAt  time.Time
}

// MetadataKeyAppointmentID links a booking-derived blocking period back to the
// appointment that reserved it.
const MetadataKeyAppointmentID = "appointment_id"

func (p *Timeperiod) AppointmentID() string {
	if p.Metadata == nil {
		return ""
	}
	v, _ := p.Metadata[MetadataKeyAppointmentID].(string)
	return v
}
