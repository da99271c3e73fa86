package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"snapgram/internal/logger"
	"snapgram/internal/models"
	"snapgram/internal/repository"

	"github.com/google/uuid"
)

// SnapTTL is the fixed lifetime of every snap. expires_at is always computed
// server-side as created_at + SnapTTL; clients cannot influence it.
const SnapTTL = 12 * time.Hour

const maxImageBytes = 10 << 20 // 10 MB

var allowedMimeTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// Domain errors for the upload path.
var (
	ErrOwnerNotFound  = errors.New("owner not found or inactive")
	ErrImageMissing   = errors.New("image payload is empty")
	ErrImageTooLarge  = errors.New("image exceeds the 10MB limit")
	ErrMimeNotAllowed = errors.New("mime type not allowed: must be JPEG, PNG, GIF or WEBP")
)

// CreateSnapParams carries everything the upload endpoint collects.
type CreateSnapParams struct {
	OwnerID  int
	Image    []byte
	MimeType string
	Caption  string
	Location string
	Hashtags string
}

type SnapService struct {
	snaps repository.Snaps
	users repository.Users
	log   *logger.Logger
}

func NewSnapService(snaps repository.Snaps, users repository.Users, log *logger.Logger) *SnapService {
	return &SnapService{snaps: snaps, users: users, log: log}
}

// Create validates the payload, resolves the owner, and persists the snap
// together with its hashtag fan-out in one transaction. No storage is touched
// until validation and the owner lookup have passed.
func (s *SnapService) Create(ctx context.Context, p CreateSnapParams) (*models.SnapRecord, error) {
	if len(p.Image) == 0 {
		return nil, ErrImageMissing
	}
	if len(p.Image) > maxImageBytes {
		return nil, ErrImageTooLarge
	}
	if _, ok := allowedMimeTypes[normalizeMime(p.MimeType)]; !ok {
		return nil, ErrMimeNotAllowed
	}

	owner, err := s.users.GetActiveByID(ctx, p.OwnerID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, ErrOwnerNotFound
	}

	now := time.Now().UTC()
	snap := models.Snap{
		ID:        uuid.NewString(),
		UserID:    p.OwnerID,
		ImageData: p.Image,
		MimeType:  normalizeMime(p.MimeType),
		Caption:   strings.TrimSpace(p.Caption),
		Location:  strings.TrimSpace(p.Location),
		Hashtags:  strings.TrimSpace(p.Hashtags),
		CreatedAt: now,
		ExpiresAt: now.Add(SnapTTL),
		IsPublic:  true,
	}
	tags := ParseHashtags(snap.Hashtags)

	skipped, err := s.snaps.Create(ctx, snap, tags)
	if err != nil {
		return nil, err
	}
	if len(skipped) > 0 && s.log != nil {
		// Lenient per-tag policy: the upload committed, these tokens were lost.
		s.log.Warnw("snap_hashtags_skipped", "snap_id", snap.ID, "tags", skipped)
	}

	return &models.SnapRecord{
		ID:        snap.ID,
		UserID:    owner.ID,
		Username:  owner.Username,
		UserPic:   owner.ProfilePic,
		ImageURL:  ImagePath(snap.ID),
		MimeType:  snap.MimeType,
		Caption:   snap.Caption,
		Location:  snap.Location,
		Hashtags:  snap.Hashtags,
		Tags:      withoutTags(tags, skipped),
		CreatedAt: snap.CreatedAt,
		ExpiresAt: snap.ExpiresAt,
	}, nil
}

// Get returns one snap with owner and tags, or (nil, nil) when the snap is
// unknown or already expired.
func (s *SnapService) Get(ctx context.Context, id string) (*models.SnapRecord, error) {
	rec, err := s.snaps.GetByID(ctx, id, time.Now().UTC())
	if err != nil || rec == nil {
		return nil, err
	}
	rec.ImageURL = ImagePath(rec.ID)
	if len(rec.Tags) == 0 && rec.Hashtags != "" {
		rec.Tags = ParseHashtags(rec.Hashtags)
	}
	return rec, nil
}

// GetImage returns the raw payload and mime type, or (nil, "", nil) when the
// snap is gone. A successful read bumps the view counter best-effort.
func (s *SnapService) GetImage(ctx context.Context, id string) ([]byte, string, error) {
	img, mime, err := s.snaps.GetImage(ctx, id, time.Now().UTC())
	if err != nil || img == nil {
		return nil, "", err
	}
	if err := s.snaps.IncrementViews(ctx, id); err != nil && s.log != nil {
		// The read itself already succeeded; losing one view bump is fine.
		s.log.Warnw("snap_view_bump_failed", "snap_id", id, "err", err)
	}
	return img, mime, nil
}

// ImagePath is the canonical fetch URL for a snap's payload.
func ImagePath(id string) string {
	return "/api/v1/snaps/" + id + "/image"
}

func normalizeMime(m string) string {
	return strings.ToLower(strings.TrimSpace(m))
}

func withoutTags(tags, skipped []string) []string {
	if len(skipped) == 0 {
		return tags
	}
	drop := make(map[string]struct{}, len(skipped))
	for _, t := range skipped {
		drop[t] = struct{}{}
	}
	kept := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, gone := drop[t]; !gone {
			kept = append(kept, t)
		}
	}
	return kept
}
