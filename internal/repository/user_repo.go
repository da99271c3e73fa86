package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"snapgram/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Ensure implementation of Users interface at compile time.
var _ Users = (*UserRepository)(nil)

const (
	insertUserSQL = `INSERT INTO users (username, password_hash, email, profile_pic, bio, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	selectUserByUsernameSQL = `SELECT id, username, password_hash, email, profile_pic, bio, is_active, created_at, updated_at, last_login
		FROM users WHERE username = ?`
	selectActiveUserByIDSQL = `SELECT id, username, password_hash, email, profile_pic, bio, is_active, created_at, updated_at, last_login
		FROM users WHERE id = ? AND is_active = 1`
	touchLastLoginSQL = `UPDATE users SET last_login = ?, updated_at = ? WHERE id = ?`
)

// Create inserts a new user and returns its ID. Zero timestamps are set to now.
func (r *UserRepository) Create(u models.User) (int, error) {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}

	res, err := r.db.Exec(insertUserSQL,
		u.Username,
		u.PasswordHash,
		u.Email,
		u.ProfilePic,
		u.Bio,
		u.IsActive,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert user %q: %w", u.Username, err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for user %q: %w", u.Username, err)
	}
	return int(lastID), nil
}

// GetByUsername fetches a user by username. Returns (nil, nil) if not found.
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(selectUserByUsernameSQL, username))
	if err != nil {
		return nil, fmt.Errorf("select user %q: %w", username, err)
	}
	return u, nil
}

// GetActiveByID fetches an active user by id. Returns (nil, nil) if the user
// does not exist or is deactivated.
func (r *UserRepository) GetActiveByID(ctx context.Context, id int) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, selectActiveUserByIDSQL, id))
	if err != nil {
		return nil, fmt.Errorf("select active user %d: %w", id, err)
	}
	return u, nil
}

// TouchLastLogin records a successful sign-in time.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id int, at time.Time) error {
	at = at.UTC()
	if _, err := r.db.ExecContext(ctx, touchLastLoginSQL, at, at, id); err != nil {
		return fmt.Errorf("touch last login for user %d: %w", id, err)
	}
	return nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u         models.User
		lastLogin sql.NullTime
	)
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.Email,
		&u.ProfilePic,
		&u.Bio,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
		&lastLogin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		u.LastLogin = &t
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}
