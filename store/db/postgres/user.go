package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Team1-AD-project/EcoGoProject-sub000/store"
)

const userColumns = `id, user_id, nickname, email, phone, faculty, total_carbon,
	current_points, total_points, total_trips, total_distance, green_days, weekly_rank, updated_ts`

func scanUser(row interface{ Scan(dest ...any) error }) (*store.User, error) {
	var user store.User
	err := row.Scan(
		&user.ID,
		&user.UserID,
		&user.Nickname,
		&user.Email,
		&user.Phone,
		&user.Faculty,
		&user.TotalCarbon,
		&user.CurrentPoints,
		&user.TotalPoints,
		&user.TotalTrips,
		&user.TotalDistance,
		&user.GreenDays,
		&user.WeeklyRank,
		&user.UpdatedTs,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser returns the profile for userID, or nil when the user is unknown.
func (d *DB) GetUser(ctx context.Context, userID string) (*store.User, error) {
	stmt := `SELECT ` + userColumns + ` FROM user_profile WHERE user_id = $1`
	user, err := scanUser(d.db.QueryRowContext(ctx, stmt, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}
	return user, nil
}

func (d *DB) UpsertUser(ctx context.Context, upsert *store.User) error {
	stmt := `
		INSERT INTO user_profile (user_id, nickname, email, phone, faculty, total_carbon,
			current_points, total_points, total_trips, total_distance, green_days, weekly_rank, updated_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id) DO UPDATE SET
			nickname = excluded.nickname,
			email = excluded.email,
			phone = excluded.phone,
			faculty = excluded.faculty,
			total_carbon = excluded.total_carbon,
			current_points = excluded.current_points,
			total_points = excluded.total_points,
			total_trips = excluded.total_trips,
			total_distance = excluded.total_distance,
			green_days = excluded.green_days,
			weekly_rank = excluded.weekly_rank,
			updated_ts = excluded.updated_ts
	`
	if _, err := d.db.ExecContext(ctx, stmt,
		upsert.UserID,
		upsert.Nickname,
		upsert.Email,
		upsert.Phone,
		upsert.Faculty,
		upsert.TotalCarbon,
		upsert.CurrentPoints,
		upsert.TotalPoints,
		upsert.TotalTrips,
		upsert.TotalDistance,
		upsert.GreenDays,
		upsert.WeeklyRank,
		upsert.UpdatedTs,
	); err != nil {
		return errors.Wrap(err, "failed to upsert user")
	}
	return nil
}

// UpdateUser applies a partial profile patch and returns the updated row.
func (d *DB) UpdateUser(ctx context.Context, update *store.UpdateUser) (*store.User, error) {
	set, args := []string{}, []any{}
	if update.Nickname != nil {
		set, args = append(set, fmt.Sprintf("nickname = $%d", len(args)+1)), append(args, *update.Nickname)
	}
	if update.Email != nil {
		set, args = append(set, fmt.Sprintf("email = $%d", len(args)+1)), append(args, *update.Email)
	}
	if update.Phone != nil {
		set, args = append(set, fmt.Sprintf("phone = $%d", len(args)+1)), append(args, *update.Phone)
	}
	if update.Faculty != nil {
		set, args = append(set, fmt.Sprintf("faculty = $%d", len(args)+1)), append(args, *update.Faculty)
	}
	if len(set) == 0 {
		return nil, errors.New("no fields to update")
	}
	set, args = append(set, fmt.Sprintf("updated_ts = $%d", len(args)+1)), append(args, time.Now().Unix())
	args = append(args, update.UserID)

	stmt := `UPDATE user_profile SET ` + strings.Join(set, ", ") +
		fmt.Sprintf(` WHERE user_id = $%d RETURNING `, len(args)) + userColumns
	user, err := scanUser(d.db.QueryRowContext(ctx, stmt, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to update user")
	}
	return user, nil
}
