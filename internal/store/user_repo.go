package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// UserRepo persists the single learner profile row.
type UserRepo struct{}

// Get fetches the user by id.
func (UserRepo) Get(ctx context.Context, tx *Tx, id string) (*User, error) {
	var u User
	err := tx.GetContext(ctx, &u, `SELECT id, display_name, created_at, last_activity_at,
		cumulative_xp, level, streak_length, last_streak_date
		FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ErrNotFound{Entity: "user", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// Create inserts a new user row.
func (UserRepo) Create(ctx context.Context, tx *Tx, u *User) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO users
		(id, display_name, created_at, last_activity_at, cumulative_xp, level, streak_length, last_streak_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.DisplayName, u.CreatedAt, u.LastActivityAt, u.CumulativeXP, u.Level, u.StreakLength, u.LastStreakDate)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of a user row.
func (UserRepo) Update(ctx context.Context, tx *Tx, u *User) error {
	res, err := tx.ExecContext(ctx, `UPDATE users SET
		display_name = ?, last_activity_at = ?, cumulative_xp = ?, level = ?,
		streak_length = ?, last_streak_date = ?
		WHERE id = ?`,
		u.DisplayName, u.LastActivityAt, u.CumulativeXP, u.Level, u.StreakLength, u.LastStreakDate, u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows affected: %w", err)
	}
	if n == 0 {
		return &ErrNotFound{Entity: "user", ID: u.ID}
	}
	return nil
}
