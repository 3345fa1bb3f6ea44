// Package runreport persists run summaries: counters, policy version, and
// the coverage report as jsonb.
package runreport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var columns = []string{
	"id", "policy_version",
	"raw_row_count", "canonical_count", "active_count",
	"evidence_row_count", "linked_evidence_count", "unlinked_evidence_count",
	"orphan_evidence_count", "excluded_row_count", "duplicate_group_count",
	"coverage", "created_at",
}

// runRow carries one runs row off the wire; the coverage jsonb scans
// through the typed wrapper.
type runRow struct {
	models.Run
	CoverageData database.JSONB[json.RawMessage] `db:"coverage"`
}

func (row runRow) toModel() models.Run {
	run := row.Run
	run.Coverage = row.CoverageData.GetValue()
	return run
}

// Repository handles run report persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new run report repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create persists one run summary. The coverage report is stored as jsonb.
func (r *Repository) Create(ctx context.Context, runID, policyVersion string, stats models.RunStats, cov models.FieldCoverageReport) (*models.Run, error) {
	ctx, span := tracing.StartSpan(ctx, "runreport.Repository.Create")
	defer span.End()

	covJSON, err := json.Marshal(cov)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to encode coverage report")
	}

	if runID == "" {
		runID = uuid.New().String()
	}
	run := &models.Run{
		ID:            runID,
		PolicyVersion: policyVersion,
		RunStats:      stats,
		Coverage:      covJSON,
		CreatedAt:     time.Now().UTC(),
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("runs")
	sb.Cols(columns...)
	sb.Values(
		run.ID, run.PolicyVersion,
		run.RawRowCount, run.CanonicalCount, run.ActiveCount,
		run.EvidenceRowCount, run.LinkedEvidenceCount, run.UnlinkedEvidenceCount,
		run.OrphanEvidenceCount, run.ExcludedRowCount, run.DuplicateGroupCount,
		database.JSONB[models.FieldCoverageReport]{Data: cov}, run.CreatedAt,
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"run_id": run.ID}).Error("Failed to create run report")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create run report")
	}

	return run, nil
}

// Get retrieves a run by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Run, error) {
	ctx, span := tracing.StartSpan(ctx, "runreport.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("runs")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var row runRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("run %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get run report")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get run report")
	}

	run := row.toModel()
	return &run, nil
}

// List retrieves the most recent runs, newest first.
func (r *Repository) List(ctx context.Context, limit int) ([]models.Run, error) {
	ctx, span := tracing.StartSpan(ctx, "runreport.Repository.List")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 50
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("runs")
	sb.OrderBy("created_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list run reports")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list run reports")
	}

	runs := make([]models.Run, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, row.toModel())
	}
	return runs, nil
}
