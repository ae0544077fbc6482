package availability

import (
	"time"

	"github.com/bookable/bookingd/internal/slotgrid"
)

// Covered reports whether every grid slot of [from, to) is free in the given
// availability. It discretizes the requested window on the same grid the
// availability was computed with and short-circuits on the first missing day
// or uncovered slot.
func Covered(from, to time.Time, granularityMinutes int, days []Day) (bool, error) {
	requested, err := slotgrid.Discretize(from, to, granularityMinutes)
	if err != nil {
		return false, err
	}

	byDate := make(map[slotgrid.DateKey]slotgrid.SlotSet, len(days))
	for _, d := range days {
		byDate[d.Date] = d.Free
	}

	for _, day := range requested {
		free, ok := byDate[day.Date]
		if !ok {
			return false, nil
		}
		for _, slot := range day.Starts {
			if !free.Contains(slot) {
				return false, nil
			}
		}
	}
	return true, nil
}
