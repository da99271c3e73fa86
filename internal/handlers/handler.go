package handlers

import (
	"snapgram/internal/logger"
	"snapgram/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	hub      *wsHub
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, hub: newWSHub(log), log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints
	h.registerAPIRoutes(router)

	// Live-update channel: committed uploads are pushed to connected viewers
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		h.registerSnapRoutes(api)
		h.registerFeedRoutes(api)
	}
}

func (h *Handler) registerSnapRoutes(api *gin.RouterGroup) {
	snaps := api.Group("/snaps")
	{
		// Upload needs a bearer credential; reads are public.
		snaps.POST("", h.userIdMiddleware, h.uploadSnap)
		snaps.GET("/:id", h.getSnap)
		snaps.GET("/:id/image", h.getSnapImage)
	}
}

func (h *Handler) registerFeedRoutes(api *gin.RouterGroup) {
	api.GET("/feed", h.getFeed)
}
