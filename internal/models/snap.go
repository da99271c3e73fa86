package models

import "time"

// Snap is a stored ephemeral post. The image payload lives in the same row;
// ImageData is only populated on the image read path.
type Snap struct {
	ID        string    `json:"id"`
	UserID    int       `json:"user_id"`
	ImageData []byte    `json:"-"`
	MimeType  string    `json:"mime_type"`
	Caption   string    `json:"caption,omitempty"`
	Location  string    `json:"location,omitempty"`
	Hashtags  string    `json:"-"` // raw form-field string; display uses Tags
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	ViewCount int       `json:"view_count"`
	IsPublic  bool      `json:"is_public"`
}

// SnapRecord is a snap denormalized for display: owner info joined in and
// hashtag rows aggregated into Tags.
type SnapRecord struct {
	ID        string    `json:"id"`
	UserID    int       `json:"user_id"`
	Username  string    `json:"username"`
	UserPic   string    `json:"user_pic,omitempty"`
	ImageURL  string    `json:"image_url"`
	MimeType  string    `json:"mime_type"`
	Caption   string    `json:"caption,omitempty"`
	Location  string    `json:"location,omitempty"`
	Hashtags  string    `json:"-"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	ViewCount int       `json:"view_count"`
}

// Pagination summarizes the full non-expired corpus for a feed page.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// FeedPage is one page of the feed plus its pagination summary.
type FeedPage struct {
	Items      []SnapRecord `json:"items"`
	Pagination Pagination   `json:"pagination"`
}
