package slotgrid

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidInterval    = errors.New("interval start must be before interval end")
	ErrInvalidGranularity = errors.New("granularity must be a positive number of minutes")
)

// DateKey identifies one calendar day in UTC. Slots are grouped under the UTC
// day their start falls on, regardless of whether they end past midnight.
type DateKey struct {
	Year  int
	Month time.Month
	Day   int
}

// DateKeyOf keys the instant by its UTC day. Normalizing here means the same
// instant always lands on the same key no matter which offset the caller's
// time.Time carries, so day lookups built from stored periods and lookups for
// a requested slot agree.
func DateKeyOf(t time.Time) DateKey {
	y, m, d := t.UTC().Date()
	return DateKey{Year: y, Month: m, Day: d}
}

func (k DateKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", k.Year, int(k.Month), k.Day)
}

func (k DateKey) Before(other DateKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	if k.Month != other.Month {
		return k.Month < other.Month
	}
	return k.Day < other.Day
}

// SlotSet is a membership set of slot starts. Keys are unix seconds so that
// two time.Time values naming the same instant in different locations compare
// equal.
type SlotSet map[int64]struct{}

func (s SlotSet) Add(t time.Time) {
	s[t.Unix()] = struct{}{}
}

func (s SlotSet) Contains(t time.Time) bool {
	_, ok := s[t.Unix()]
	return ok
}

func (s SlotSet) Remove(t time.Time) {
	delete(s, t.Unix())
}

func (s SlotSet) Len() int {
	return len(s)
}

// DaySlots holds the ordered slot starts of one calendar day.
type DaySlots struct {
	Date   DateKey
	Starts []time.Time
}

// Discretize walks [from, to) in fixed steps of granularityMinutes and returns
// one slot start per step, grouped by the day each start falls on, in
// ascending order. A trailing partial step still yields a slot (its start is
// < to); callers must not assume (to - from) divides evenly.
//
// The result is fully determined by the inputs.
func Discretize(from, to time.Time, granularityMinutes int) ([]DaySlots, error) {
	if granularityMinutes <= 0 {
		return nil, ErrInvalidGranularity
	}
	if !from.Before(to) {
		return nil, ErrInvalidInterval
	}

	step := time.Duration(granularityMinutes) * time.Minute
	var days []DaySlots
	for t := from; t.Before(to); t = t.Add(step) {
		key := DateKeyOf(t)
		if len(days) == 0 || days[len(days)-1].Date != key {
			days = append(days, DaySlots{Date: key})
		}
		last := &days[len(days)-1]
		last.Starts = append(last.Starts, t)
	}
	return days, nil
}
