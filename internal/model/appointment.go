package model

import (
	"errors"
	"fmt"
	"time"
)

type AppointmentStatus string

const (
	AppointmentDraft          AppointmentStatus = "draft"
	AppointmentScheduled      AppointmentStatus = "scheduled"
	AppointmentCanceled       AppointmentStatus = "canceled"
	AppointmentRequiresAction AppointmentStatus = "requires_action"
	AppointmentPending        AppointmentStatus = "pending"
	AppointmentReschedule     AppointmentStatus = "reschedule"
	AppointmentOnProgress     AppointmentStatus = "on_progress"
	AppointmentFinished       AppointmentStatus = "finished"
)

var ErrInvalidTransition = errors.New("invalid appointment status transition")

// appointmentTransitions enumerates every legal status change. Anything not in
// the table is rejected; canceled and finished are terminal.
var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentDraft:          {AppointmentScheduled, AppointmentPending, AppointmentRequiresAction, AppointmentCanceled},
	AppointmentPending:        {AppointmentScheduled, AppointmentRequiresAction, AppointmentCanceled},
	AppointmentRequiresAction: {AppointmentPending, AppointmentScheduled, AppointmentCanceled},
	AppointmentScheduled:      {AppointmentOnProgress, AppointmentReschedule, AppointmentRequiresAction, AppointmentCanceled},
	AppointmentReschedule:     {AppointmentScheduled, AppointmentCanceled},
	AppointmentOnProgress:     {AppointmentFinished, AppointmentCanceled},
	AppointmentCanceled:       {},
	AppointmentFinished:       {},
}

func CanTransition(from, to AppointmentStatus) bool {
	for _, next := range appointmentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Appointment links an order to a reserved window on a calendar. From/To stay
// nil until the booking workflow promotes it to scheduled.
type Appointment struct {
	ID          string
	OrderID     string
	Status      AppointmentStatus
	From        *time.Time
	To          *time.Time
	IsConfirmed bool
	Code        string
	Metadata    map[string]any
	CreatedAt   time.Time
	DeletedAt   *time.Time
}

// MetadataKeyTimeperiodID carries the id of the blocking Timeperiod created
// for a scheduled appointment.
const MetadataKeyTimeperiodID = "timeperiod_id"

// Transition moves the appointment to the target status, or fails if the pair
// is not in the transition table.
func (a *Appointment) Transition(to AppointmentStatus) error {
	if !CanTransition(a.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
	}
	a.Status = to
	return nil
}

func (a *Appointment) TimeperiodID() string {
	if a.Metadata == nil {
		return ""
	}
	v, _ := a.Metadata[MetadataKeyTimeperiodID].(string)
	return v
}
