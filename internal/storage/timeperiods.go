package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bookable/bookingd/internal/booking"
	"github.com/bookable/bookingd/internal/model"
)

func (s *Store) ListTimeperiods(ctx context.Context, calendarID string, types []model.TimeperiodType, from, to time.Time) ([]model.Timeperiod, error) {
	typeNames := make([]string, 0, len(types))
	for _, t := range types {
		typeNames = append(typeNames, string(t))
	}

	// Intersection with [from, to]: a period qualifies when it starts before
	// the window ends and ends after the window starts.
	rows, err := s.q.Query(ctx, `
		SELECT id::text, calendar_id::text, type, starts_at, ends_at, COALESCE(title, ''), metadata, created_at
		FROM timeperiods
		WHERE calendar_id = $1
			AND type = ANY($2)
			AND starts_at <= $4
			AND ends_at >= $3
		ORDER BY starts_at ASC
	`, calendarID, typeNames, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []model.Timeperiod
	for rows.Next() {
		p, err := scanTimeperiod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, *p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return periods, nil
}

func (s *Store) GetTimeperiod(ctx context.Context, id string) (*model.Timeperiod, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id::text, calendar_id::text, type, starts_at, ends_at, COALESCE(title, ''), metadata, created_at
		FROM timeperiods
		WHERE id = $1
	`, id)
	p, err := scanTimeperiod(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, booking.ErrTimeperiodNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) CreateTimeperiod(ctx context.Context, period *model.Timeperiod) error {
	metadata, err := json.Marshal(metadataOrEmpty(period.Metadata))
	if err != nil {
		return err
	}
	return s.q.QueryRow(ctx, `
		INSERT INTO timeperiods (id, calendar_id, type, starts_at, ends_at, title, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, period.ID, period.CalendarID, string(period.Type), period.From, period.To, period.Title, metadata).Scan(&period.CreatedAt)
}

func (s *Store) DeleteTimeperiod(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM timeperiods WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrTimeperiodNotFound
	}
	return nil
}

func scanTimeperiod(row pgx.Row) (*model.Timeperiod, error) {
	var p model.Timeperiod
	var typ string
	var metadata []byte
	if err := row.Scan(&p.ID, &p.CalendarID, &typ, &p.From, &p.To, &p.Title, &metadata, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Type = model.TimeperiodType(typ)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func metadataOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
