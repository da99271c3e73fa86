package repository

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"

	"snapgram/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func newMockSnapRepo(t *testing.T) (*SnapSQLite, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}

	repo := NewSnapSQLite(db)
	cleanup := func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	}
	return repo, mock, cleanup
}

func testSnap() models.Snap {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return models.Snap{
		ID:        "snap-1",
		UserID:    7,
		ImageData: []byte{0xff, 0xd8},
		MimeType:  "image/jpeg",
		Caption:   "hello",
		Location:  "Berlin",
		Hashtags:  "#foo #bar",
		CreatedAt: created,
		ExpiresAt: created.Add(12 * time.Hour),
		IsPublic:  true,
	}
}

func TestSnapRepo_Create_CommitsSnapAndTags(t *testing.T) {
	repo, mock, cleanup := newMockSnapRepo(t)
	defer cleanup()

	s := testSnap()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertSnapSQL)).
		WithArgs(s.ID, s.UserID, s.ImageData, s.MimeType, s.Caption, s.Location, s.Hashtags,
			s.CreatedAt, s.ExpiresAt, s.IsPublic).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertHashtagSQL)).
		WithArgs(s.ID, "#foo").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertHashtagSQL)).
		WithArgs(s.ID, "#bar").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	skipped, err := repo.Create(ctx(t), s, []string{"#foo", "#bar"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(skipped) != 0 {
		t.Fatalf("expected no skipped tags, got %v", skipped)
	}
}

func TestSnapRepo_Create_SnapInsertFailureRollsBack(t *testing.T) {
	repo, mock, cleanup := newMockSnapRepo(t)
	defer cleanup()

	s := testSnap()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertSnapSQL)).
		WillReturnError(errors.New("constraint violated"))
	mock.ExpectRollback()

	_, err := repo.Create(ctx(t), s, []string{"#foo"})
	if err == nil || !strings.Contains(err.Error(), "insert snap") {
		t.Fatalf("expected wrapped insert error, got %v", err)
	}
}

func TestSnapRepo_Create_PerTagFailureIsSkippedNotFatal(t *testing.T) {
	repo, mock, cleanup := newMockSnapRepo(t)
	defer cleanup()

	s := testSnap()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertSnapSQL)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertHashtagSQL)).
		WithArgs(s.ID, "#bad").
		WillReturnError(errors.New("malformed token"))
	mock.ExpectExec(regexp.QuoteMeta(insertHashtagSQL)).
		WithArgs(s.ID, "#good").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	skipped, err := repo.Create(ctx(t), s, []string{"#bad", "#good"})
	if err != nil {
		t.Fatalf("per-tag failure must not abort the upload: %v", err)
	}
	if !reflect.DeepEqual(skipped, []string{"#bad"}) {
		t.Fatalf("skipped = %v, want [#bad]", skipped)
	}
}

func TestSnapRepo_Create_CommitFailure(t *testing.T) {
	repo, mock, cleanup := newMockSnapRepo(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertSnapSQL)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("disk full"))

	_, err := repo.Create(ctx(t), testSnap(), nil)
	if err == nil || !strings.Contains(err.Error(), "commit snap") {
		t.Fatalf("expected commit error, got %v", err)
	}
}

func TestSnapRepo_DeleteExpired_ReturnsDeletedIDs(t *testing.T) {
	repo, mock, cleanup := newMockSnapRepo(t)
	defer cleanup()

	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(deleteExpiredSnapsSQL)).
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a").AddRow("b"))
	mock.ExpectCommit()

	ids, err := repo.DeleteExpired(ctx(t), cutoff)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"a", "b"}) {
		t.Fatalf("ids = %v, want [a b]", ids)
	}
}

func TestSnapRepo_DeleteExpired_NothingToDelete(t *testing.T) {
	repo, mock, cleanup := newMockSnapRepo(t)
	defer cleanup()

	cutoff := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(deleteExpiredSnapsSQL)).
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	ids, err := repo.DeleteExpired(ctx(t), cutoff)
	if err != nil {
		t.Fatalf("an empty pass must not error: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no ids, got %v", ids)
	}
}

func TestSnapRepo_DeleteExpired_QueryFailureRollsBack(t *testing.T) {
	repo, mock, cleanup := newMockSnapRepo(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(deleteExpiredSnapsSQL)).
		WillReturnError(errors.New("sqlite busy"))
	mock.ExpectRollback()

	_, err := repo.DeleteExpired(ctx(t), time.Now())
	if err == nil || !strings.Contains(err.Error(), "delete expired") {
		t.Fatalf("expected wrapped delete error, got %v", err)
	}
}

func snapRecordColumns() []string {
	return []string{"id", "user_id", "username", "profile_pic", "mime_type", "caption",
		"location", "hashtags", "tags", "created_at", "expires_at", "view_count"}
}

func TestSnapRepo_GetByID_FoundWithAggregatedTags(t *testing.T) {
	repo, mock, cleanup := newMockSnapRepo(t)
	defer cleanup()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	created := now.Add(-time.Hour)

	rows := sqlmock.NewRows(snapRecordColumns()).
		AddRow("snap-1", 7, "alice", "alice.png", "image/jpeg", "hi", "Berlin",
			"#foo #bar", "#foo,#bar", created, created.Add(12*time.Hour), 3)

	mock.ExpectQuery(regexp.QuoteMeta(selectSnapSQL)).
		WithArgs("snap-1", now).
		WillReturnRows(rows)

	rec, err := repo.GetByID(ctx(t), "snap-1", now)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if rec == nil {
		t.Fatalf("expected record, got nil")
	}
	if rec.Username != "alice" || rec.ViewCount != 3 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if !reflect.DeepEqual(rec.Tags, []string{"#foo", "#bar"}) {
		t.Fatalf("tags = %v", rec.Tags)
	}
}

func TestSnapRepo_GetByID_AbsentIsNilNil(t *testing.T) {
	repo, mock, cleanup := newMockSnapRepo(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(selectSnapSQL)).
		WillReturnError(sql.ErrNoRows)

	rec, err := repo.GetByID(ctx(t), "gone", time.Now())
	if err != nil {
		t.Fatalf("absence is not an error: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record, got %+v", rec)
	}
}

func TestSnapRepo_GetByID_NullTags(t *testing.T) {
	repo, mock, cleanup := newMockSnapRepo(t)
	defer cleanup()

	now := time.Now().UTC()
	rows := sqlmock.NewRows(snapRecordColumns()).
		AddRow("snap-1", 7, "alice", "", "image/png", "", "", "", nil, now, now.Add(time.Hour), 0)

	mock.ExpectQuery(regexp.QuoteMeta(selectSnapSQL)).
		WillReturnRows(rows)

	rec, err := repo.GetByID(ctx(t), "snap-1", now)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if rec.Tags != nil {
		t.Fatalf("expected nil tags for untagged snap, got %v", rec.Tags)
	}
}

func TestSnapRepo_GetImage(t *testing.T) {
	repo, mock, cleanup := newMockSnapRepo(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(selectSnapImageSQL)).
		WithArgs("snap-1", now).
		WillReturnRows(sqlmock.NewRows([]string{"image", "mime_type"}).
			AddRow([]byte{1, 2, 3}, "image/gif"))

	img, mime, err := repo.GetImage(ctx(t), "snap-1", now)
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if mime != "image/gif" || len(img) != 3 {
		t.Fatalf("unexpected payload: %v %q", img, mime)
	}
}

func TestSnapRepo_GetImage_Absent(t *testing.T) {
	repo, mock, cleanup := newMockSnapRepo(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(selectSnapImageSQL)).
		WillReturnError(sql.ErrNoRows)

	img, mime, err := repo.GetImage(ctx(t), "gone", time.Now())
	if err != nil || img != nil || mime != "" {
		t.Fatalf("expected absent result, got %v %q %v", img, mime, err)
	}
}

func TestSnapRepo_ListPage_WindowArgs(t *testing.T) {
	repo, mock, cleanup := newMockSnapRepo(t)
	defer cleanup()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	created := now.Add(-time.Minute)

	rows := sqlmock.NewRows(snapRecordColumns()).
		AddRow("b", 7, "alice", "", "image/jpeg", "", "", "", nil, created, created.Add(12*time.Hour), 0).
		AddRow("a", 8, "bob", "", "image/png", "", "", "#x", "#x", created, created.Add(12*time.Hour), 1)

	mock.ExpectQuery(regexp.QuoteMeta(selectFeedPageSQL)).
		WithArgs(now, 10, 20).
		WillReturnRows(rows)

	items, err := repo.ListPage(ctx(t), now, 10, 20)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if len(items) != 2 || items[0].ID != "b" || items[1].ID != "a" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestSnapRepo_CountActive(t *testing.T) {
	repo, mock, cleanup := newMockSnapRepo(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(countActiveSnapsSQL)).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))

	n, err := repo.CountActive(ctx(t), now)
	if err != nil {
		t.Fatalf("CountActive: %v", err)
	}
	if n != 25 {
		t.Fatalf("count = %d, want 25", n)
	}
}

func TestSnapRepo_IncrementViews(t *testing.T) {
	repo, mock, cleanup := newMockSnapRepo(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(bumpSnapViewsSQL)).
		WithArgs("snap-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.IncrementViews(ctx(t), "snap-1"); err != nil {
		t.Fatalf("IncrementViews: %v", err)
	}
}
