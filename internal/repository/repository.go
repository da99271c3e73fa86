package repository

import (
	"context"
	"database/sql"
	"time"

	"snapgram/internal/models"
)

type Users interface {
	Create(u models.User) (int, error)
	GetByUsername(username string) (*models.User, error)
	GetActiveByID(ctx context.Context, id int) (*models.User, error)
	TouchLastLogin(ctx context.Context, id int, at time.Time) error
}

type Snaps interface {
	// Create inserts the snap and its hashtag rows in one transaction.
	// Returned skipped tags are per-tag tolerated failures; any other error
	// means the whole transaction was rolled back.
	Create(ctx context.Context, s models.Snap, tags []string) (skipped []string, err error)
	GetByID(ctx context.Context, id string, now time.Time) (*models.SnapRecord, error)
	GetImage(ctx context.Context, id string, now time.Time) ([]byte, string, error)
	ListPage(ctx context.Context, now time.Time, limit, offset int) ([]models.SnapRecord, error)
	CountActive(ctx context.Context, now time.Time) (int, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) ([]string, error)
	IncrementViews(ctx context.Context, id string) error
}

type Repository struct {
	Users Users
	Snaps Snaps
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Users: NewUserRepository(db),
		Snaps: NewSnapSQLite(db),
	}
}
