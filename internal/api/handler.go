package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"bondpulse/internal/domain/dto"
	"bondpulse/internal/service"
)

const defaultSnapshotLimit = 500

// Handler provides HTTP handlers for the published-dataset endpoints.
//
// Responsibilities:
//   - Validate incoming HTTP query parameters
//   - Interact with the service layer for data access
//   - Translate results into response DTOs
//   - Return structured JSON responses with appropriate HTTP status codes
type Handler struct {
	svc service.SnapshotService
}

// NewHandler constructs a new Handler instance.
func NewHandler(svc service.SnapshotService) *Handler {
	return &Handler{svc: svc}
}

// GetSnapshot handles GET /api/v1/snapshot requests.
//
// Query Parameters:
//   - limit (int, optional): Maximum number of rows to return. Defaults to 500.
//
// Responses:
//   - 200 OK: Returns SnapshotResponse with rows of the latest completed run.
//   - 400 Bad Request: Invalid limit parameter.
//   - 404 Not Found: No completed run exists yet.
//   - 500 Internal Server Error: Failure in repository or database layer.
func (h *Handler) GetSnapshot(c *gin.Context) {
	limit := defaultSnapshotLimit
	if s := strings.TrimSpace(c.Query("limit")); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse("limit must be a positive integer", err))
			return
		}
		limit = parsed
	}

	ds, err := h.svc.GetLatest(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to fetch snapshot", err))
		return
	}
	if ds == nil {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse("no completed run found", nil))
		return
	}

	c.JSON(http.StatusOK, dto.NewSnapshotResponse(ds))
}
