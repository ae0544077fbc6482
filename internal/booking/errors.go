package booking

import "errors"

// Not-found conditions are terminal and surfaced to the caller unchanged.
var (
	ErrCalendarNotFound    = errors.New("calendar not found")
	ErrLocationNotFound    = errors.New("location has no calendars")
	ErrOrderNotFound       = errors.New("order not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrTimeperiodNotFound  = errors.New("timeperiod not found")
)

// Conflict conditions carry which check failed so the caller can re-query and
// retry with different input.
var (
	ErrOrderAlreadyBooked = errors.New("order already has a scheduled appointment")
	ErrSlotUnavailable    = errors.New("requested slot is not available")
	ErrTimeperiodManaged  = errors.New("timeperiod is managed by an appointment")
)

// Validation conditions are rejected before any write.
var (
	ErrNoDuration            = errors.New("order line items resolve to no service duration")
	errInvalidPeriodInterval = errors.New("period start must be before period end")
)
