package booking

import (
	"context"
	"time"

	"github.com/bookable/bookingd/internal/model"
)

// Store is the persistence surface the booking engine consumes. The pgx
// implementation lives in internal/storage; tests substitute an in-memory one.
type Store interface {
	// Calendars.
	CalendarExists(ctx context.Context, calendarID string) (bool, error)
	CreateCalendar(ctx context.Context, cal *model.Calendar) error
	ListCalendarsByLocation(ctx context.Context, locationID string) ([]model.Calendar, error)

	// Timeperiods. ListTimeperiods returns periods of the given types whose
	// intervals intersect [from, to], ordered by their start.
	ListTimeperiods(ctx context.Context, calendarID string, types []model.TimeperiodType, from, to time.Time) ([]model.Timeperiod, error)
	GetTimeperiod(ctx context.Context, id string) (*model.Timeperiod, error)
	CreateTimeperiod(ctx context.Context, period *model.Timeperiod) error
	DeleteTimeperiod(ctx context.Context, id string) error

	// Appointments.
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	ListAppointmentsByOrder(ctx context.Context, orderID string) ([]model.Appointment, error)
	CreateAppointment(ctx context.Context, appt *model.Appointment) error
	UpdateAppointment(ctx context.Context, appt *model.Appointment) error

	// Orders (read-only projection of the external order system).
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)

	// EmitEvent stages a named event with payload {id, fields?} for
	// publication after the surrounding transaction commits. Emission order is
	// preserved; delivery is not guaranteed by this engine.
	EmitEvent(ctx context.Context, eventType, aggregateID string, fields []string) error
}

// TxRunner scopes a function to one atomic transaction. WithCalendarLock
// additionally holds an exclusive lock on the calendar for the duration, so
// availability re-reads and blocking-interval writes of concurrent bookings on
// the same calendar serialize (see Service.Book).
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
	WithCalendarLock(ctx context.Context, calendarID string, fn func(ctx context.Context, s Store) error) error
}
