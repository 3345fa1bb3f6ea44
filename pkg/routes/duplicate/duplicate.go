// Package duplicate serves duplicate candidate groups to the review UI.
package duplicate

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/duplicatecandidate"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Handler handles duplicate candidate API requests
type Handler struct {
	repo   *duplicatecandidate.Repository
	logger ectologger.Logger
}

// NewHandler creates a new duplicate handler
func NewHandler(repo *duplicatecandidate.Repository, logger ectologger.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// RegisterRoutes registers duplicate endpoints
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListByRun)
}

// ListByRun returns all duplicate candidate groups detected by a run
// GET /api/v1/duplicates?run_id=...
func (h *Handler) ListByRun(c echo.Context) error {
	ctx := c.Request().Context()

	runID := c.QueryParam("run_id")
	if runID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "run_id query parameter is required")
	}

	groups, err := h.repo.ListByRun(ctx, runID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.DuplicateGroupListResponse{
		Items:      groups,
		TotalCount: len(groups),
	})
}
