// Package member serves the canonical member table to the review UI.
// Restricted columns are redacted by default; callers must opt in with
// include_restricted=true to see them, mirroring the privacy partitioning of
// the CSV outputs.
package member

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/canonicalmember"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Handler handles canonical member API requests
type Handler struct {
	repo   *canonicalmember.Repository
	logger ectologger.Logger
}

// NewHandler creates a new member handler
func NewHandler(repo *canonicalmember.Repository, logger ectologger.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// RegisterRoutes registers member endpoints
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/:member_id", h.Get)
}

func redact(m models.CanonicalMember) models.CanonicalMember {
	m.RestrictedFields = models.RestrictedFields{}
	return m
}

func includeRestricted(c echo.Context) bool {
	v, _ := strconv.ParseBool(c.QueryParam("include_restricted"))
	return v
}

// List returns a page of canonical members
// GET /api/v1/members?active=true&page=1&page_size=100&include_restricted=false
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()

	filter := canonicalmember.ListFilter{}
	if v := c.QueryParam("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "active must be true or false")
		}
		filter.Active = &active
	}
	filter.Page, _ = strconv.Atoi(c.QueryParam("page"))
	filter.PageSize, _ = strconv.Atoi(c.QueryParam("page_size"))
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}

	members, total, err := h.repo.List(ctx, filter)
	if err != nil {
		return err
	}

	if !includeRestricted(c) {
		for i := range members {
			members[i] = redact(members[i])
		}
	}

	return c.JSON(http.StatusOK, models.CanonicalMemberListResponse{
		Items:      members,
		TotalCount: total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	})
}

// Get returns one canonical member by member_id
// GET /api/v1/members/:member_id
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	memberID := c.Param("member_id")
	if memberID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "missing member_id")
	}

	member, err := h.repo.Get(ctx, memberID)
	if err != nil {
		return err
	}

	out := *member
	if !includeRestricted(c) {
		out = redact(out)
	} else {
		h.logger.WithContext(ctx).WithFields(map[string]any{
			"member_id": memberID,
		}).Info("Served member with restricted fields")
	}

	return c.JSON(http.StatusOK, out)
}
