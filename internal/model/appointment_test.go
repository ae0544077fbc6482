package model

import (
	"errors"
	"testing"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to AppointmentStatus
		ok       bool
	}{
		{AppointmentDraft, AppointmentScheduled, true},
		{AppointmentDraft, AppointmentPending, true},
		{AppointmentPending, AppointmentScheduled, true},
		{AppointmentScheduled, AppointmentCanceled, true},
		{AppointmentScheduled, AppointmentOnProgress, true},
		{AppointmentOnProgress, AppointmentFinished, true},
		{AppointmentReschedule, AppointmentScheduled, true},

		{AppointmentDraft, AppointmentFinished, false},
		{AppointmentCanceled, AppointmentScheduled, false},
		{AppointmentFinished, AppointmentScheduled, false},
		{AppointmentFinished, AppointmentCanceled, false},
		{AppointmentScheduled, AppointmentDraft, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.ok {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestAppointmentTransition(t *testing.T) {
	appt := &Appointment{ID: "a1", Status: AppointmentDraft}
	if err := appt.Transition(AppointmentScheduled); err != nil {
		t.Fatalf("draft -> scheduled should be legal: %v", err)
	}
	if appt.Status != AppointmentScheduled {
		t.Fatalf("status not updated: %s", appt.Status)
	}

	err := appt.Transition(AppointmentDraft)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if appt.Status != AppointmentScheduled {
		t.Fatalf("status changed on rejected transition: %s", appt.Status)
	}
}

func TestTimeperiodTypeBlocking(t *testing.T) {
	if TimeperiodWorkingHour.Blocking() {
		t.Fatal("working_hour must not block")
	}
	for _, typ := range BlockingTimeperiodTypes {
		if !typ.Blocking() {
			t.Fatalf("%s should block", typ)
		}
	}
	if TimeperiodType("vacation").Valid() {
		t.Fatal("unknown type reported valid")
	}
}
