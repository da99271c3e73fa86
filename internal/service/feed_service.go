package service

import (
	"context"
	"time"

	"snapgram/internal/models"
	"snapgram/internal/repository"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
	maxPageSize     = 50
)

type FeedService struct {
	snaps repository.Snaps
}

func NewFeedService(snaps repository.Snaps) *FeedService {
	return &FeedService{snaps: snaps}
}

// GetFeed returns one page of the non-expired corpus, newest first, plus a
// pagination summary for the whole corpus. The window and the count are two
// independent queries; slight staleness between them under concurrent writes
// is accepted.
func (s *FeedService) GetFeed(ctx context.Context, page, pageSize int) (models.FeedPage, error) {
	page, pageSize = clampPaging(page, pageSize)
	now := time.Now().UTC()

	items, err := s.snaps.ListPage(ctx, now, pageSize, (page-1)*pageSize)
	if err != nil {
		return models.FeedPage{}, err
	}
	total, err := s.snaps.CountActive(ctx, now)
	if err != nil {
		return models.FeedPage{}, err
	}

	for i := range items {
		items[i].ImageURL = ImagePath(items[i].ID)
		if len(items[i].Tags) == 0 && items[i].Hashtags != "" {
			// Association rows and the raw string can briefly disagree;
			// re-parsing keeps the displayed list self-consistent.
			items[i].Tags = ParseHashtags(items[i].Hashtags)
		}
	}

	return models.FeedPage{
		Items: items,
		Pagination: models.Pagination{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: total,
			TotalPages: (total + pageSize - 1) / pageSize,
		},
	}, nil
}

// clampPaging applies the defaults (page 1, size 10) and the [1,50] size cap.
func clampPaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	} else if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
