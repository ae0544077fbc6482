package storage

import (
	"context"

	"github.com/bookable/bookingd/internal/model"
)

func (s *Store) CalendarExists(ctx context.Context, calendarID string) (bool, error) {
	var exists bool
	err := s.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM calendars WHERE id = $1)
	`, calendarID).Scan(&exists)
	return exists, err
}

func (s *Store) CreateCalendar(ctx context.Context, cal *model.Calendar) error {
	return s.q.QueryRow(ctx, `
		INSERT INTO calendars (id, location_id, name, color)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, cal.ID, cal.LocationID, cal.Name, cal.Color).Scan(&cal.CreatedAt)
}

func (s *Store) ListCalendarsByLocation(ctx context.Context, locationID string) ([]model.Calendar, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id::text, location_id::text, name, COALESCE(color, ''), created_at
		FROM calendars
		WHERE location_id = $1
		ORDER BY created_at ASC
	`, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cals []model.Calendar
	for rows.Next() {
		var cal model.Calendar
		if err := rows.Scan(&cal.ID, &cal.LocationID, &cal.Name, &cal.Color, &cal.CreatedAt); err != nil {
			return nil, err
		}
		cals = append(cals, cal)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return cals, nil
}
