// Package run serves run summaries and coverage reports.
package run

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/runreport"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Handler handles run report API requests
type Handler struct {
	repo   *runreport.Repository
	logger ectologger.Logger
}

// NewHandler creates a new run handler
func NewHandler(repo *runreport.Repository, logger ectologger.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// RegisterRoutes registers run endpoints
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.GET("/:id/coverage", h.GetCoverage)
}

// List returns the most recent runs
// GET /api/v1/runs?limit=50
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	runs, err := h.repo.List(ctx, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.RunListResponse{
		Items:      runs,
		TotalCount: len(runs),
	})
}

// Get returns one run by id
// GET /api/v1/runs/:id
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "missing id")
	}

	run, err := h.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, run)
}

// GetCoverage returns only the stored coverage report of a run
// GET /api/v1/runs/:id/coverage
func (h *Handler) GetCoverage(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "missing id")
	}

	run, err := h.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.JSONBlob(http.StatusOK, run.Coverage)
}
