// Package availability computes per-day free slots for a calendar by
// subtracting its blocking timeperiods from its working hours, and validates
// requested booking windows against that result.
package availability

import (
	"context"
	"sort"
	"time"

	"github.com/bookable/bookingd/internal/model"
	"github.com/bookable/bookingd/internal/slotgrid"
)

// PeriodSource lists a calendar's timeperiods of the given types whose
// intervals intersect [from, to].
type PeriodSource interface {
	ListTimeperiods(ctx context.Context, calendarID string, types []model.TimeperiodType, from, to time.Time) ([]model.Timeperiod, error)
}

// Day is one calendar day's availability. Free answers membership in O(1);
// Slots carries the same starts in ascending order for presentation.
//
// A day appears here only when at least one working-hour period touches it.
// A day fully consumed by blocking periods keeps its entry with an empty set;
// a day with no working hours at all has no entry. Both are unavailable, but
// "not configured" must never read as "fully open".
type Day struct {
	Date  slotgrid.DateKey
	Free  slotgrid.SlotSet
	Slots []time.Time
}

// Compute returns the calendar's per-day free slots over [from, to], ascending
// by date. Working-hour and blocking periods are each discretized on the same
// grid; free = working − blocking per day.
//
// The granularity here must match the one used when validating a booking
// against the result. The two are wired from a single configuration value; a
// mismatch is a configuration bug, not a runtime condition.
func Compute(ctx context.Context, src PeriodSource, calendarID string, from, to time.Time, granularityMinutes int) ([]Day, error) {
	if granularityMinutes <= 0 {
		return nil, slotgrid.ErrInvalidGranularity
	}
	if !from.Before(to) {
		return nil, slotgrid.ErrInvalidInterval
	}

	working, err := src.ListTimeperiods(ctx, calendarID, []model.TimeperiodType{model.TimeperiodWorkingHour}, from, to)
	if err != nil {
		return nil, err
	}
	blocking, err := src.ListTimeperiods(ctx, calendarID, model.BlockingTimeperiodTypes, from, to)
	if err != nil {
		return nil, err
	}

	workingSlots, err := slotsByDay(working, granularityMinutes)
	if err != nil {
		return nil, err
	}
	blockingSlots, err := slotsByDay(blocking, granularityMinutes)
	if err != nil {
		return nil, err
	}

	days := make([]Day, 0, len(workingSlots))
	for date, free := range workingSlots {
		if blocked, ok := blockingSlots[date]; ok {
			for slot := range blocked {
				delete(free, slot)
			}
		}
		days = append(days, Day{Date: date, Free: free, Slots: sortedSlots(free)})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days, nil
}

// slotsByDay discretizes every period and unions the resulting slot starts per
// day. Periods arrive in whatever order the store returns them; the union is
// order-independent.
func slotsByDay(periods []model.Timeperiod, granularityMinutes int) (map[slotgrid.DateKey]slotgrid.SlotSet, error) {
	out := make(map[slotgrid.DateKey]slotgrid.SlotSet, len(periods))
	for _, p := range periods {
		if !p.From.Before(p.To) {
			// A malformed stored period must not poison the whole window.
			continue
		}
		days, err := slotgrid.Discretize(p.From, p.To, granularityMinutes)
		if err != nil {
			return nil, err
		}
		for _, day := range days {
			set, ok := out[day.Date]
			if !ok {
				set = slotgrid.SlotSet{}
				out[day.Date] = set
			}
			for _, s := range day.Starts {
				set.Add(s)
			}
		}
	}
	return out, nil
}

func sortedSlots(set slotgrid.SlotSet) []time.Time {
	slots := make([]time.Time, 0, len(set))
	for unix := range set {
		slots = append(slots, time.Unix(unix, 0).UTC())
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Before(slots[j]) })
	return slots
}

// Merge unions per-day availability across calendars (a slot is free when any
// calendar of the location has it free). Used for location-level lookups.
func Merge(sets ...[]Day) []Day {
	byDate := map[slotgrid.DateKey]slotgrid.SlotSet{}
	for _, days := range sets {
		for _, d := range days {
			set, ok := byDate[d.Date]
			if !ok {
				set = slotgrid.SlotSet{}
				byDate[d.Date] = set
			}
			for unix := range d.Free {
				set[unix] = struct{}{}
			}
		}
	}

	merged := make([]Day, 0, len(byDate))
	for date, free := range byDate {
		merged = append(merged, Day{Date: date, Free: free, Slots: sortedSlots(free)})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })
	return merged
}
