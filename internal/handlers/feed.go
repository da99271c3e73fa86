package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// @Summary      Browse the feed
// @Description  Paginated non-expired snaps, newest first. page defaults to 1, limit to 10 (max 50).
// @Tags         feed
// @Produce      json
// @Param        page   query   int  false  "Page number (1-based)"
// @Param        limit  query   int  false  "Items per page"
// @Success      200   {object}  models.FeedPage
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/feed [get]
func (h *Handler) getFeed(c *gin.Context) {
	ctx := c.Request.Context()

	// Out-of-range and junk values fall through as zero; the service applies
	// the defaults and the [1,50] clamp.
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	feed, err := h.services.Feed.GetFeed(ctx, page, limit)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load feed", "feed_load_failed", err, "page", page, "limit", limit)
		return
	}
	c.JSON(http.StatusOK, feed)
}
