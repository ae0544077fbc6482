package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/bookable/bookingd/internal/booking"
	"github.com/bookable/bookingd/internal/model"
)

const appointmentColumns = `
	id::text, order_id::text, status, starts_at, ends_at, is_confirmed,
	COALESCE(code, ''), metadata, created_at, deleted_at
`

func (s *Store) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	row := s.q.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	appt, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, booking.ErrAppointmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *Store) ListAppointmentsByOrder(ctx context.Context, orderID string) ([]model.Appointment, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE order_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, *appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func (s *Store) CreateAppointment(ctx context.Context, appt *model.Appointment) error {
	metadata, err := json.Marshal(metadataOrEmpty(appt.Metadata))
	if err != nil {
		return err
	}
	return s.q.QueryRow(ctx, `
		INSERT INTO appointments (id, order_id, status, starts_at, ends_at, is_confirmed, code, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, appt.ID, appt.OrderID, string(appt.Status), appt.From, appt.To, appt.IsConfirmed, appt.Code, metadata).Scan(&appt.CreatedAt)
}

func (s *Store) UpdateAppointment(ctx context.Context, appt *model.Appointment) error {
	metadata, err := json.Marshal(metadataOrEmpty(appt.Metadata))
	if err != nil {
		return err
	}
	tag, err := s.q.Exec(ctx, `
		UPDATE appointments
		SET status = $2,
			starts_at = $3,
			ends_at = $4,
			is_confirmed = $5,
			metadata = $6,
			deleted_at = $7
		WHERE id = $1
	`, appt.ID, string(appt.Status), appt.From, appt.To, appt.IsConfirmed, metadata, appt.DeletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrAppointmentNotFound
	}
	return nil
}

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	var appt model.Appointment
	var status string
	var metadata []byte
	if err := row.Scan(
		&appt.ID,
		&appt.OrderID,
		&status,
		&appt.From,
		&appt.To,
		&appt.IsConfirmed,
		&appt.Code,
		&metadata,
		&appt.CreatedAt,
		&appt.DeletedAt,
	); err != nil {
		return nil, err
	}
	appt.Status = model.AppointmentStatus(status)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &appt.Metadata); err != nil {
			return nil, err
		}
	}
	return &appt, nil
}
