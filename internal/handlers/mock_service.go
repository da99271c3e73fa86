package handlers

import (
	"context"
	"net/http"

	"snapgram/internal/models"
	"snapgram/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpEmail    string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, email, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpEmail = email
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(ctx context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockSnaps struct {
	createRec   *models.SnapRecord
	createErr   error
	createCalls int
	lastCreate  service.CreateSnapParams

	getRec *models.SnapRecord
	getErr error

	img    []byte
	mime   string
	imgErr error
}

func (m *mockSnaps) Create(ctx context.Context, p service.CreateSnapParams) (*models.SnapRecord, error) {
	m.createCalls++
	m.lastCreate = p
	return m.createRec, m.createErr
}
func (m *mockSnaps) Get(ctx context.Context, id string) (*models.SnapRecord, error) {
	return m.getRec, m.getErr
}
func (m *mockSnaps) GetImage(ctx context.Context, id string) ([]byte, string, error) {
	return m.img, m.mime, m.imgErr
}

type mockFeed struct {
	page      models.FeedPage
	err       error
	lastPage  int
	lastLimit int
}

func (m *mockFeed) GetFeed(ctx context.Context, page, pageSize int) (models.FeedPage, error) {
	m.lastPage = page
	m.lastLimit = pageSize
	return m.page, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
