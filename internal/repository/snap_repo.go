package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"snapgram/internal/models"
)

type SnapSQLite struct {
	db *sql.DB
}

func NewSnapSQLite(db *sql.DB) *SnapSQLite { return &SnapSQLite{db: db} }

var _ Snaps = (*SnapSQLite)(nil)

const (
	insertSnapSQL = `INSERT INTO snaps (id, user_id, image, mime_type, caption, location, hashtags, created_at, expires_at, view_count, is_public)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`

	insertHashtagSQL = `INSERT OR IGNORE INTO snap_hashtags (snap_id, tag) VALUES (?, ?)`

	selectSnapSQL = `SELECT s.id, s.user_id, u.username, u.profile_pic, s.mime_type, s.caption, s.location, s.hashtags, GROUP_CONCAT(h.tag) AS tags, s.created_at, s.expires_at, s.view_count
		FROM snaps s
		JOIN users u ON u.id = s.user_id
		LEFT JOIN snap_hashtags h ON h.snap_id = s.id
		WHERE s.id = ? AND s.expires_at > ?
		GROUP BY s.id`

	selectSnapImageSQL = `SELECT image, mime_type FROM snaps WHERE id = ? AND expires_at > ?`

	// Ordering is created_at DESC with id as tie-break so pagination stays
	// deterministic when timestamps collide.
	selectFeedPageSQL = `SELECT s.id, s.user_id, u.username, u.profile_pic, s.mime_type, s.caption, s.location, s.hashtags, GROUP_CONCAT(h.tag) AS tags, s.created_at, s.expires_at, s.view_count
		FROM snaps s
		JOIN users u ON u.id = s.user_id
		LEFT JOIN snap_hashtags h ON h.snap_id = s.id
		WHERE s.expires_at > ? AND s.is_public = 1
		GROUP BY s.id
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT ? OFFSET ?`

	countActiveSnapsSQL = `SELECT COUNT(*) FROM snaps WHERE expires_at > ? AND is_public = 1`

	// Hashtag rows go with the snap via ON DELETE CASCADE; no follow-up
	// cleanup statement is needed here.
	deleteExpiredSnapsSQL = `DELETE FROM snaps WHERE created_at < ? RETURNING id`

	bumpSnapViewsSQL = `UPDATE snaps SET view_count = view_count + 1 WHERE id = ?`
)

// Create inserts the snap row and fans out its hashtag rows inside a single
// transaction. A failing individual tag insert is tolerated: the tag is
// reported back in skipped and the upload still commits. Any other failure
// rolls the whole transaction back, so no snap or tag row persists.
func (r *SnapSQLite) Create(ctx context.Context, s models.Snap, tags []string) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin snap transaction: %w", err)
	}
	defer func() {
		// No-op after a successful Commit.
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, insertSnapSQL,
		s.ID,
		s.UserID,
		s.ImageData,
		s.MimeType,
		s.Caption,
		s.Location,
		s.Hashtags,
		s.CreatedAt.UTC(),
		s.ExpiresAt.UTC(),
		s.IsPublic,
	)
	if err != nil {
		return nil, fmt.Errorf("insert snap %q: %w", s.ID, err)
	}

	var skipped []string
	for _, tag := range tags {
		// INSERT OR IGNORE makes duplicate tags a no-op; any other per-tag
		// failure loses only that tag, never the upload.
		if _, err := tx.ExecContext(ctx, insertHashtagSQL, s.ID, tag); err != nil {
			skipped = append(skipped, tag)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit snap %q: %w", s.ID, err)
	}
	return skipped, nil
}

// GetByID fetches one snap joined with its owner and aggregated tags.
// Returns (nil, nil) if the snap does not exist or is already expired.
func (r *SnapSQLite) GetByID(ctx context.Context, id string, now time.Time) (*models.SnapRecord, error) {
	row := r.db.QueryRowContext(ctx, selectSnapSQL, id, now.UTC())
	rec, err := scanSnapRecord(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select snap %q: %w", id, err)
	}
	return rec, nil
}

// GetImage returns the raw payload and mime type for a non-expired snap.
// Absence is (nil, "", nil).
func (r *SnapSQLite) GetImage(ctx context.Context, id string, now time.Time) ([]byte, string, error) {
	var (
		img  []byte
		mime string
	)
	err := r.db.QueryRowContext(ctx, selectSnapImageSQL, id, now.UTC()).Scan(&img, &mime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("select snap image %q: %w", id, err)
	}
	return img, mime, nil
}

// ListPage returns one feed window of non-expired public snaps, newest first.
func (r *SnapSQLite) ListPage(ctx context.Context, now time.Time, limit, offset int) ([]models.SnapRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectFeedPageSQL, now.UTC(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("select feed page: %w", err)
	}
	defer rows.Close()

	out := make([]models.SnapRecord, 0, limit)
	for rows.Next() {
		rec, err := scanSnapRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan feed row: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed rows: %w", err)
	}
	return out, nil
}

// CountActive counts the entire non-expired public corpus. Deliberately a
// separate statement from ListPage; the two are not transactionally tied.
func (r *SnapSQLite) CountActive(ctx context.Context, now time.Time) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countActiveSnapsSQL, now.UTC()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active snaps: %w", err)
	}
	return n, nil
}

// DeleteExpired removes every snap created before cutoff in one transaction
// and returns the deleted ids. A second run against an already-clean table
// deletes nothing and is not an error.
func (r *SnapSQLite) DeleteExpired(ctx context.Context, cutoff time.Time) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin cleanup transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, deleteExpiredSnapsSQL, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("delete expired snaps: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan deleted snap id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate deleted snap ids: %w", err)
	}
	_ = rows.Close()

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit cleanup transaction: %w", err)
	}
	return ids, nil
}

// IncrementViews bumps the view counter for a snap.
func (r *SnapSQLite) IncrementViews(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, bumpSnapViewsSQL, id); err != nil {
		return fmt.Errorf("increment views for snap %q: %w", id, err)
	}
	return nil
}

// scanSnapRecord scans the shared snap+owner+tags projection used by both
// the single-snap and feed queries.
func scanSnapRecord(scan func(dest ...any) error) (*models.SnapRecord, error) {
	var (
		rec  models.SnapRecord
		tags sql.NullString
	)
	err := scan(
		&rec.ID,
		&rec.UserID,
		&rec.Username,
		&rec.UserPic,
		&rec.MimeType,
		&rec.Caption,
		&rec.Location,
		&rec.Hashtags,
		&tags,
		&rec.CreatedAt,
		&rec.ExpiresAt,
		&rec.ViewCount,
	)
	if err != nil {
		return nil, err
	}
	if tags.Valid && tags.String != "" {
		rec.Tags = strings.Split(tags.String, ",")
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.ExpiresAt = rec.ExpiresAt.UTC()
	return &rec, nil
}
