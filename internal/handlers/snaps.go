package handlers

import (
	"errors"
	"io"
	"net/http"

	"snapgram/internal/service"

	"github.com/gin-gonic/gin"
)

// Upload limits mirror the service-side validation so oversized bodies are
// rejected before the payload is read into memory.
const maxUploadBytes = 10 << 20 // 10 MB

const (
	errSnapNotFound  = "snap not found"
	errUploadFailed  = "failed to store snap"
	errReadImage     = "failed to read image payload"
	errImageRequired = "image file is required"
)

// Images never change once created, so clients may cache them hard; expiry is
// handled by the 404 after deletion.
const imageCacheControl = "public, max-age=43200, immutable"

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// @Summary      Upload a snap
// @Description  Multipart upload: file field "image" (JPEG/PNG/GIF/WEBP, max 10MB) plus optional caption, location and hashtags form fields.
// @Tags         snaps
// @Accept       multipart/form-data
// @Produce      json
// @Param        image     formData  file    true   "Image payload"
// @Param        caption   formData  string  false  "Caption"
// @Param        location  formData  string  false  "Location"
// @Param        hashtags  formData  string  false  "Hashtag string, e.g. '#sunset #beach'"
// @Success      201  {object}  models.SnapRecord
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/snaps [post]
// @Security     BearerAuth
func (h *Handler) uploadSnap(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetInt(userIDKey)

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errImageRequired})
		return
	}
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrImageTooLarge.Error()})
		return
	}

	src, err := file.Open()
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errReadImage, "snap_upload_open_failed", err)
		return
	}
	defer func() { _ = src.Close() }()

	data, err := io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errReadImage, "snap_upload_read_failed", err)
		return
	}
	if len(data) > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrImageTooLarge.Error()})
		return
	}

	mime := file.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}

	rec, err := h.services.Snaps.Create(ctx, service.CreateSnapParams{
		OwnerID:  userID,
		Image:    data,
		MimeType: mime,
		Caption:  c.PostForm("caption"),
		Location: c.PostForm("location"),
		Hashtags: c.PostForm("hashtags"),
	})
	if err != nil {
		h.respondCreateError(c, err)
		return
	}

	// Fire-and-forget notification to connected viewers, after commit.
	h.hub.broadcast(*rec)

	c.JSON(http.StatusCreated, rec)
}

// respondCreateError maps upload failures onto the error taxonomy:
// validation 400, unknown owner 401, storage 500.
func (h *Handler) respondCreateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOwnerNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrImageMissing),
		errors.Is(err, service.ErrImageTooLarge),
		errors.Is(err, service.ErrMimeNotAllowed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errUploadFailed, "snap_upload_failed", err)
	}
}

// @Summary      Get one snap
// @Tags         snaps
// @Produce      json
// @Param        id  path  string  true  "Snap id"
// @Success      200  {object}  models.SnapRecord
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/snaps/{id} [get]
func (h *Handler) getSnap(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	rec, err := h.services.Snaps.Get(ctx, id)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load snap", "snap_get_failed", err, "snap_id", id)
		return
	}
	if rec == nil {
		// Absent is a normal outcome: unknown id or already expired.
		c.JSON(http.StatusNotFound, gin.H{"error": errSnapNotFound})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// @Summary      Fetch snap image bytes
// @Tags         snaps
// @Produce      image/jpeg
// @Param        id  path  string  true  "Snap id"
// @Success      200  {file}  binary
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/snaps/{id}/image [get]
func (h *Handler) getSnapImage(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	img, mime, err := h.services.Snaps.GetImage(ctx, id)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load image", "snap_image_failed", err, "snap_id", id)
		return
	}
	if img == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errSnapNotFound})
		return
	}

	c.Header("Cache-Control", imageCacheControl)
	c.Data(http.StatusOK, mime, img)
}
