// Package duplicatecandidate persists duplicate candidate groups for review.
// Groups are recomputed fresh by every run, so persistence is replace-by-run
// rather than upsert.
package duplicatecandidate

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// groupRow maps the text[] list columns for sqlx.
type groupRow struct {
	DuplicateKey      string         `db:"duplicate_key"`
	MemberIDs         pq.StringArray `db:"member_ids"`
	LegacyMemberIDs   pq.StringArray `db:"legacy_member_ids"`
	LegacyUsernames   pq.StringArray `db:"legacy_usernames"`
	Reason            string         `db:"reason"`
	RecommendedAction string         `db:"recommended_action"`
}

func (row groupRow) toModel() models.DuplicateCandidateGroup {
	return models.DuplicateCandidateGroup{
		DuplicateKey:      row.DuplicateKey,
		MemberIDs:         row.MemberIDs,
		LegacyMemberIDs:   row.LegacyMemberIDs,
		LegacyUsernames:   row.LegacyUsernames,
		Reason:            row.Reason,
		RecommendedAction: row.RecommendedAction,
	}
}

// Repository handles duplicate candidate group persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new duplicate candidate repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ReplaceForRun replaces all groups belonging to runID with the given set.
func (r *Repository) ReplaceForRun(ctx context.Context, runID string, groups []models.DuplicateCandidateGroup) error {
	ctx, span := tracing.StartSpan(ctx, "duplicatecandidate.Repository.ReplaceForRun")
	defer span.End()

	del := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	del.DeleteFrom("duplicate_candidate_groups")
	del.Where(del.Equal("run_id", runID))

	query, args := del.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"run_id": runID}).Error("Failed to clear duplicate candidate groups")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to clear duplicate candidate groups")
	}

	if len(groups) == 0 {
		return nil
	}

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("duplicate_candidate_groups")
	sb.Cols("run_id", "duplicate_key", "member_ids", "legacy_member_ids", "legacy_usernames", "reason", "recommended_action", "created_at")
	for _, g := range groups {
		sb.Values(
			runID, g.DuplicateKey,
			pq.StringArray(g.MemberIDs), pq.StringArray(g.LegacyMemberIDs), pq.StringArray(g.LegacyUsernames),
			g.Reason, g.RecommendedAction, now,
		)
	}

	query, args = sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"run_id": runID}).Error("Failed to create duplicate candidate groups")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create duplicate candidate groups")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"run_id": runID, "count": len(groups)}).Debug("Stored duplicate candidate groups")
	return nil
}

// ListByRun retrieves all groups for a run, largest first.
func (r *Repository) ListByRun(ctx context.Context, runID string) ([]models.DuplicateCandidateGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicatecandidate.Repository.ListByRun")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("duplicate_key", "member_ids", "legacy_member_ids", "legacy_usernames", "reason", "recommended_action")
	sb.From("duplicate_candidate_groups")
	sb.Where(sb.Equal("run_id", runID))
	sb.OrderBy("cardinality(member_ids) DESC", "duplicate_key")

	query, args := sb.Build()
	var rows []groupRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list duplicate candidate groups")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list duplicate candidate groups")
	}

	groups := make([]models.DuplicateCandidateGroup, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, row.toModel())
	}
	return groups, nil
}
