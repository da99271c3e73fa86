package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"snapgram/internal/models"
	"snapgram/internal/service"
)

func TestGetFeed_PassesQueryParams(t *testing.T) {
	feed := &mockFeed{page: models.FeedPage{
		Items: []models.SnapRecord{*sampleRecord()},
		Pagination: models.Pagination{
			Page: 2, PageSize: 5, TotalItems: 25, TotalPages: 5,
		},
	}}
	r := newTestRouter(&service.Service{Feed: feed})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/feed?page=2&limit=5", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if feed.lastPage != 2 || feed.lastLimit != 5 {
		t.Fatalf("service got (page %d, limit %d), want (2, 5)", feed.lastPage, feed.lastLimit)
	}

	var out models.FeedPage
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out.Items) != 1 || out.Items[0].ID != "snap-1" {
		t.Fatalf("unexpected items: %+v", out.Items)
	}
	if out.Pagination.TotalItems != 25 || out.Pagination.TotalPages != 5 {
		t.Fatalf("unexpected pagination: %+v", out.Pagination)
	}
}

func TestGetFeed_JunkParamsFallThroughAsZero(t *testing.T) {
	feed := &mockFeed{}
	r := newTestRouter(&service.Service{Feed: feed})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/feed?page=abc&limit=-5", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	// Clamping is the service's job; the handler passes what it parsed.
	if feed.lastPage != 0 || feed.lastLimit != -5 {
		t.Fatalf("service got (page %d, limit %d)", feed.lastPage, feed.lastLimit)
	}
}

func TestGetFeed_ServiceFailure(t *testing.T) {
	feed := &mockFeed{err: errors.New("db down")}
	r := newTestRouter(&service.Service{Feed: feed})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/feed", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var out struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Error != "failed to load feed" {
		t.Fatalf("caller must get a generic message, got %q", out.Error)
	}
}
