// Package booking implements the appointment booking workflow: it reserves a
// window on a calendar for an order by validating the request against the
// calendar's availability and, atomically, persisting the appointment together
// with the blocking timeperiod that takes the window off the market.
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bookable/bookingd/internal/availability"
	"github.com/bookable/bookingd/internal/duration"
	"github.com/bookable/bookingd/internal/model"
)

const (
	EventAppointmentCreated  = "appointment.created"
	EventAppointmentUpdated  = "appointment.updated"
	EventAppointmentCanceled = "appointment.canceled"
)

type Service struct {
	store       Store
	tx          TxRunner
	granularity int
	logger      *slog.Logger
}

// New wires the booking engine. granularityMinutes is the single slot-grid
// width used for both availability computation and booking validation; the two
// must never diverge.
func New(store Store, tx TxRunner, granularityMinutes int, logger *slog.Logger) *Service {
	if granularityMinutes <= 0 {
		granularityMinutes = 15
	}
	return &Service{store: store, tx: tx, granularity: granularityMinutes, logger: logger}
}

func (s *Service) Granularity() int {
	return s.granularity
}

type BookRequest struct {
	OrderID    string
	LocationID string
	CalendarID string
	SlotTime   time.Time
}

// Book runs the booking workflow for one order:
//
//	calendar exists → no scheduled appointment for the order yet → resolve
//	duration from line items → fetch availability → validate → persist.
//
// The fetch/validate/persist tail runs in one transaction holding the
// calendar's row lock, so two overlapping requests on the same calendar
// serialize there: the loser re-reads availability that already contains the
// winner's blocking period and fails with ErrSlotUnavailable.
func (s *Service) Book(ctx context.Context, req BookRequest) (*model.Appointment, error) {
	exists, err := s.store.CalendarExists(ctx, req.CalendarID)
	if err != nil {
		return nil, fmt.Errorf("check calendar: %w", err)
	}
	if !exists {
		return nil, ErrCalendarNotFound
	}

	existing, err := s.store.ListAppointmentsByOrder(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("list appointments for order: %w", err)
	}
	if hasScheduled(existing) {
		return nil, ErrOrderAlreadyBooked
	}

	order, err := s.store.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	totalMinutes := duration.TotalMinutes(order.Items)
	if totalMinutes <= 0 {
		return nil, ErrNoDuration
	}
	slotTimeUntil := req.SlotTime.Add(time.Duration(totalMinutes) * time.Minute)

	var booked *model.Appointment
	err = s.tx.WithCalendarLock(ctx, req.CalendarID, func(ctx context.Context, txs Store) error {
		// The pre-lock check is a fast path; a concurrent booking for the same
		// order may have committed since, so it has to hold here too.
		existing, err := txs.ListAppointmentsByOrder(ctx, req.OrderID)
		if err != nil {
			return fmt.Errorf("list appointments for order: %w", err)
		}
		if hasScheduled(existing) {
			return ErrOrderAlreadyBooked
		}

		days, err := availability.Compute(ctx, txs, req.CalendarID, req.SlotTime, slotTimeUntil, s.granularity)
		if err != nil {
			return err
		}
		ok, err := availability.Covered(req.SlotTime, slotTimeUntil, s.granularity, days)
		if err != nil {
			return err
		}
		if !ok {
			return ErrSlotUnavailable
		}

		appt := &model.Appointment{
			ID:       uuid.NewString(),
			OrderID:  req.OrderID,
			Status:   model.AppointmentDraft,
			Code:     newBookingCode(),
			Metadata: map[string]any{},
		}
		if err := txs.CreateAppointment(ctx, appt); err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		period := &model.Timeperiod{
			ID:         uuid.NewString(),
			CalendarID: req.CalendarID,
			Type:       model.TimeperiodBlocked,
			From:       req.SlotTime,
			To:         slotTimeUntil,
			Title:      "Booking " + appt.Code,
			Metadata:   map[string]any{model.MetadataKeyAppointmentID: appt.ID},
		}
		if err := txs.CreateTimeperiod(ctx, period); err != nil {
			return fmt.Errorf("create blocking timeperiod: %w", err)
		}

		if err := appt.Transition(model.AppointmentScheduled); err != nil {
			return err
		}
		from, to := req.SlotTime, slotTimeUntil
		appt.From = &from
		appt.To = &to
		appt.IsConfirmed = true
		appt.Metadata[model.MetadataKeyTimeperiodID] = period.ID
		if err := txs.UpdateAppointment(ctx, appt); err != nil {
			return fmt.Errorf("promote appointment: %w", err)
		}

		if err := txs.EmitEvent(ctx, EventAppointmentCreated, appt.ID, nil); err != nil {
			return err
		}
		if err := txs.EmitEvent(ctx, EventAppointmentUpdated, appt.ID, []string{"status", "from", "to", "metadata"}); err != nil {
			return err
		}

		booked = appt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment booked",
		"appointment_id", booked.ID,
		"order_id", req.OrderID,
		"calendar_id", req.CalendarID,
		"from", req.SlotTime.UTC().Format(time.RFC3339),
		"to", slotTimeUntil.UTC().Format(time.RFC3339),
	)
	return booked, nil
}

func hasScheduled(appts []model.Appointment) bool {
	for _, a := range appts {
		if a.Status == model.AppointmentScheduled {
			return true
		}
	}
	return false
}

// GetAvailability returns the calendar's per-day free slots over [from, to].
func (s *Service) GetAvailability(ctx context.Context, calendarID string, from, to time.Time) ([]availability.Day, error) {
	exists, err := s.store.CalendarExists(ctx, calendarID)
	if err != nil {
		return nil, fmt.Errorf("check calendar: %w", err)
	}
	if !exists {
		return nil, ErrCalendarNotFound
	}
	return availability.Compute(ctx, s.store, calendarID, from, to, s.granularity)
}

// GetLocationAvailability unions per-day free slots across the location's
// calendars: a slot is available when at least one calendar has it free.
func (s *Service) GetLocationAvailability(ctx context.Context, locationID string, from, to time.Time) ([]availability.Day, error) {
	calendars, err := s.store.ListCalendarsByLocation(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}
	if len(calendars) == 0 {
		return nil, ErrLocationNotFound
	}

	perCalendar := make([][]availability.Day, 0, len(calendars))
	for _, cal := range calendars {
		days, err := availability.Compute(ctx, s.store, cal.ID, from, to, s.granularity)
		if err != nil {
			return nil, err
		}
		perCalendar = append(perCalendar, days)
	}
	return availability.Merge(perCalendar...), nil
}

// Cancel transitions the appointment to canceled and removes its blocking
// timeperiod in the same transaction, so the window reopens exactly when the
// cancellation becomes visible.
func (s *Service) Cancel(ctx context.Context, appointmentID string) (*model.Appointment, error) {
	var canceled *model.Appointment
	err := s.tx.InTx(ctx, func(ctx context.Context, txs Store) error {
		appt, err := txs.GetAppointment(ctx, appointmentID)
		if err != nil {
			return err
		}
		if err := appt.Transition(model.AppointmentCanceled); err != nil {
			return err
		}
		if periodID := appt.TimeperiodID(); periodID != "" {
			if err := txs.DeleteTimeperiod(ctx, periodID); err != nil {
				return fmt.Errorf("release blocking timeperiod: %w", err)
			}
		}
		if err := txs.UpdateAppointment(ctx, appt); err != nil {
			return fmt.Errorf("cancel appointment: %w", err)
		}
		if err := txs.EmitEvent(ctx, EventAppointmentCanceled, appt.ID, []string{"status"}); err != nil {
			return err
		}
		canceled = appt
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("appointment canceled", "appointment_id", appointmentID)
	return canceled, nil
}

// CancelByOrder cancels the order's scheduled appointment, if any. Used by the
// order.canceled consumer; a missing appointment is not an error there.
func (s *Service) CancelByOrder(ctx context.Context, orderID string) error {
	appts, err := s.store.ListAppointmentsByOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("list appointments for order: %w", err)
	}
	for _, a := range appts {
		if a.Status != model.AppointmentScheduled {
			continue
		}
		if _, err := s.Cancel(ctx, a.ID); err != nil {
			return err
		}
	}
	return nil
}

// Reschedule moves a scheduled appointment to a new slot, keeping its
// duration. The booking-derived timeperiod is never mutated in place: the old
// one is deleted and a new one created inside the same locked transaction, so
// a failed validation rolls everything back and the appointment keeps its
// original window.
func (s *Service) Reschedule(ctx context.Context, appointmentID string, slotTime time.Time) (*model.Appointment, error) {
	appt, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.Status != model.AppointmentScheduled || appt.From == nil || appt.To == nil {
		return nil, fmt.Errorf("%w: only scheduled appointments can be rescheduled", model.ErrInvalidTransition)
	}
	periodID := appt.TimeperiodID()
	if periodID == "" {
		return nil, ErrTimeperiodNotFound
	}
	period, err := s.store.GetTimeperiod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	window := appt.To.Sub(*appt.From)
	slotTimeUntil := slotTime.Add(window)

	var moved *model.Appointment
	err = s.tx.WithCalendarLock(ctx, period.CalendarID, func(ctx context.Context, txs Store) error {
		appt, err := txs.GetAppointment(ctx, appointmentID)
		if err != nil {
			return err
		}
		// Delete first so the appointment's own block does not veto the new
		// window; a later failure rolls the delete back.
		if err := txs.DeleteTimeperiod(ctx, periodID); err != nil {
			return fmt.Errorf("release blocking timeperiod: %w", err)
		}

		days, err := availability.Compute(ctx, txs, period.CalendarID, slotTime, slotTimeUntil, s.granularity)
		if err != nil {
			return err
		}
		ok, err := availability.Covered(slotTime, slotTimeUntil, s.granularity, days)
		if err != nil {
			return err
		}
		if !ok {
			return ErrSlotUnavailable
		}

		next := &model.Timeperiod{
			ID:         uuid.NewString(),
			CalendarID: period.CalendarID,
			Type:       model.TimeperiodBlocked,
			From:       slotTime,
			To:         slotTimeUntil,
			Title:      period.Title,
			Metadata:   map[string]any{model.MetadataKeyAppointmentID: appt.ID},
		}
		if err := txs.CreateTimeperiod(ctx, next); err != nil {
			return fmt.Errorf("create blocking timeperiod: %w", err)
		}

		from, to := slotTime, slotTimeUntil
		appt.From = &from
		appt.To = &to
		if appt.Metadata == nil {
			appt.Metadata = map[string]any{}
		}
		appt.Metadata[model.MetadataKeyTimeperiodID] = next.ID
		if err := txs.UpdateAppointment(ctx, appt); err != nil {
			return fmt.Errorf("move appointment: %w", err)
		}
		if err := txs.EmitEvent(ctx, EventAppointmentUpdated, appt.ID, []string{"from", "to", "metadata"}); err != nil {
			return err
		}
		moved = appt
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("appointment rescheduled", "appointment_id", appointmentID, "from", slotTime.UTC().Format(time.RFC3339))
	return moved, nil
}

// GetAppointment returns one appointment by id.
func (s *Service) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	return s.store.GetAppointment(ctx, id)
}

// ListAppointmentsByOrder returns the order's appointments, newest first.
func (s *Service) ListAppointmentsByOrder(ctx context.Context, orderID string) ([]model.Appointment, error) {
	return s.store.ListAppointmentsByOrder(ctx, orderID)
}

// CreateCalendar provisions a bookable resource under a location.
func (s *Service) CreateCalendar(ctx context.Context, locationID, name, color string) (*model.Calendar, error) {
	cal := &model.Calendar{
		ID:         uuid.NewString(),
		LocationID: locationID,
		Name:       name,
		Color:      color,
	}
	if err := s.store.CreateCalendar(ctx, cal); err != nil {
		return nil, fmt.Errorf("create calendar: %w", err)
	}
	return cal, nil
}

// CreateTimeperiod configures working hours, breaks, or manual blocks on a
// calendar. Booking-derived periods are created by Book, never through here.
func (s *Service) CreateTimeperiod(ctx context.Context, calendarID string, periodType model.TimeperiodType, from, to time.Time, title string) (*model.Timeperiod, error) {
	if !periodType.Valid() {
		return nil, fmt.Errorf("unknown timeperiod type %q", periodType)
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("timeperiod: %w", errInvalidPeriodInterval)
	}
	exists, err := s.store.CalendarExists(ctx, calendarID)
	if err != nil {
		return nil, fmt.Errorf("check calendar: %w", err)
	}
	if !exists {
		return nil, ErrCalendarNotFound
	}

	period := &model.Timeperiod{
		ID:         uuid.NewString(),
		CalendarID: calendarID,
		Type:       periodType,
		From:       from,
		To:         to,
		Title:      title,
	}
	if err := s.store.CreateTimeperiod(ctx, period); err != nil {
		return nil, fmt.Errorf("create timeperiod: %w", err)
	}
	return period, nil
}

// ListTimeperiods returns the calendar's periods intersecting [from, to].
func (s *Service) ListTimeperiods(ctx context.Context, calendarID string, types []model.TimeperiodType, from, to time.Time) ([]model.Timeperiod, error) {
	exists, err := s.store.CalendarExists(ctx, calendarID)
	if err != nil {
		return nil, fmt.Errorf("check calendar: %w", err)
	}
	if !exists {
		return nil, ErrCalendarNotFound
	}
	return s.store.ListTimeperiods(ctx, calendarID, types, from, to)
}

// DeleteTimeperiod removes an administrative period. Booking-derived periods
// are owned by their appointment; canceling the appointment releases them.
func (s *Service) DeleteTimeperiod(ctx context.Context, id string) error {
	period, err := s.store.GetTimeperiod(ctx, id)
	if err != nil {
		return err
	}
	if period.AppointmentID() != "" {
		return fmt.Errorf("%w: cancel appointment %s instead", ErrTimeperiodManaged, period.AppointmentID())
	}
	return s.store.DeleteTimeperiod(ctx, id)
}
