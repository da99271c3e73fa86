package service

import (
	"context"
	"time"

	"snapgram/internal/logger"
	"snapgram/internal/models"
	"snapgram/internal/repository"
)

type Authorization interface {
	SignUp(username, email, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Snaps exposes the content store write and read paths.
type Snaps interface {
	Create(ctx context.Context, p CreateSnapParams) (*models.SnapRecord, error)
	Get(ctx context.Context, id string) (*models.SnapRecord, error)
	GetImage(ctx context.Context, id string) ([]byte, string, error)
}

// Feed assembles paginated, denormalized feed pages.
type Feed interface {
	GetFeed(ctx context.Context, page, pageSize int) (models.FeedPage, error)
}

// Reaper runs the background expiry loop that enforces ephemerality.
// Stop via context cancellation in main() for graceful shutdown.
type Reaper interface {
	Run(ctx context.Context, interval time.Duration)
}

type Service struct {
	Snaps
	Feed
	Reaper
	Authorization
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, signingKey string, log *logger.Logger) *Service {
	return &Service{
		Snaps:         NewSnapService(repos.Snaps, repos.Users, log),
		Feed:          NewFeedService(repos.Snaps),
		Reaper:        NewReaperService(repos.Snaps, log),
		Authorization: NewAuthService(repos.Users, signingKey),
	}
}
