package model

import "time"

// Calendar is a bookable resource (a staff member, a station, a room) owned by
// a location. Its time is described by the Timeperiods attached to it.
type Calendar struct {
	ID         string
	LocationID string
	Name       string
	Color      string
	CreatedAt  time.Time
}
