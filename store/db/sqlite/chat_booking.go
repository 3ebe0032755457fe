package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/Team1-AD-project/EcoGoProject-sub000/store"
)

func (d *DB) CreateChatBooking(ctx context.Context, create *store.ChatBooking) error {
	stmt := `
		INSERT INTO chat_booking (booking_id, trip_id, user_id, from_name, to_name, depart_at, passengers, status, created_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.BookingID,
		create.TripID,
		create.UserID,
		create.FromName,
		create.ToName,
		create.DepartAt,
		create.Passengers,
		string(create.Status),
		create.CreatedTs,
	); err != nil {
		return errors.Wrap(err, "failed to create chat booking")
	}
	return nil
}

func (d *DB) GetChatBooking(ctx context.Context, bookingID string) (*store.ChatBooking, error) {
	stmt := `
		SELECT id, booking_id, trip_id, user_id, from_name, to_name, depart_at, passengers, status, created_ts
		FROM chat_booking
		WHERE booking_id = ?
	`
	var booking store.ChatBooking
	var status string
	err := d.db.QueryRowContext(ctx, stmt, bookingID).Scan(
		&booking.ID,
		&booking.BookingID,
		&booking.TripID,
		&booking.UserID,
		&booking.FromName,
		&booking.ToName,
		&booking.DepartAt,
		&booking.Passengers,
		&status,
		&booking.CreatedTs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get chat booking")
	}
	booking.Status = store.BookingStatus(status)
	return &booking, nil
}

func (d *DB) ListChatBookingsByUser(ctx context.Context, userID string) ([]*store.ChatBooking, error) {
	stmt := `
		SELECT id, booking_id, trip_id, user_id, from_name, to_name, depart_at, passengers, status, created_ts
		FROM chat_booking
		WHERE user_id = ?
		ORDER BY created_ts DESC, id DESC
	`
	rows, err := d.db.QueryContext(ctx, stmt, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list chat bookings")
	}
	defer rows.Close()

	var bookings []*store.ChatBooking
	for rows.Next() {
		var booking store.ChatBooking
		var status string
		if err := rows.Scan(
			&booking.ID,
			&booking.BookingID,
			&booking.TripID,
			&booking.UserID,
			&booking.FromName,
			&booking.ToName,
			&booking.DepartAt,
			&booking.Passengers,
			&status,
			&booking.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan chat booking")
		}
		booking.Status = store.BookingStatus(status)
		bookings = append(bookings, &booking)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate chat bookings")
	}
	return bookings, nil
}

func (d *DB) UpdateChatBookingStatus(ctx context.Context, bookingID string, status string) error {
	stmt := `UPDATE chat_booking SET status = ? WHERE booking_id = ?`
	if _, err := d.db.ExecContext(ctx, stmt, status, bookingID); err != nil {
		return errors.Wrap(err, "failed to update chat booking status")
	}
	return nil
}
