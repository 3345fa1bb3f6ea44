// Package canonicalmember persists the canonical member table produced by
// engine runs and serves it to the review API.
package canonicalmember

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var columns = []string{
	"member_id", "legacy_member_id", "legacy_username", "name_display", "joined_raw",
	"club_ids", "club_names", "club_last_validated_raw", "has_photo",
	"active", "active_confidence", "evidence_count", "evidence_summary",
	"restricted_last_login_raw", "restricted_pii_email_raw", "restricted_pii_phone_raw", "restricted_pii_address_raw",
	"profile_url", "source_path", "parse_confidence",
}

// Repository handles canonical member persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new canonical member repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func memberValues(sb *sqlbuilder.InsertBuilder, runID string, m models.CanonicalMember, now time.Time) {
	sb.Values(
		m.MemberID, m.LegacyMemberID, m.LegacyUsername, m.NameDisplay, m.JoinedRaw,
		m.ClubIDs, m.ClubNames, m.ClubLastValidatedRaw, m.HasPhoto,
		m.Active, m.ActiveConfidence, m.EvidenceCount, m.EvidenceSummary,
		m.RestrictedLastLoginRaw, m.RestrictedPIIEmailRaw, m.RestrictedPIIPhoneRaw, m.RestrictedPIIAddressRaw,
		m.ProfileURL, m.SourcePath, m.ParseConfidence,
		runID, now,
	)
}

// UpsertBatch writes the full canonical table for a run. Rows are keyed by
// member_id, so re-running over the same inputs rewrites rows in place and
// the table always reflects the most recent run.
func (r *Repository) UpsertBatch(ctx context.Context, runID string, members []models.CanonicalMember) error {
	ctx, span := tracing.StartSpan(ctx, "canonicalmember.Repository.UpsertBatch")
	defer span.End()

	if len(members) == 0 {
		return nil
	}

	now := time.Now().UTC()

	// Postgres caps bind parameters at 65535; chunk well below it.
	const chunkSize = 500
	for start := 0; start < len(members); start += chunkSize {
		end := start + chunkSize
		if end > len(members) {
			end = len(members)
		}

		sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
		sb.InsertInto("canonical_members")
		sb.Cols(append(append([]string{}, columns...), "run_id", "updated_at")...)
		for _, m := range members[start:end] {
			memberValues(sb, runID, m, now)
		}

		query, args := sb.Build()
		query += " ON CONFLICT (member_id) DO UPDATE SET" +
			" legacy_username = EXCLUDED.legacy_username, name_display = EXCLUDED.name_display," +
			" joined_raw = EXCLUDED.joined_raw, club_ids = EXCLUDED.club_ids, club_names = EXCLUDED.club_names," +
			" club_last_validated_raw = EXCLUDED.club_last_validated_raw, has_photo = EXCLUDED.has_photo," +
			" active = EXCLUDED.active, active_confidence = EXCLUDED.active_confidence," +
			" evidence_count = EXCLUDED.evidence_count, evidence_summary = EXCLUDED.evidence_summary," +
			" restricted_last_login_raw = EXCLUDED.restricted_last_login_raw," +
			" restricted_pii_email_raw = EXCLUDED.restricted_pii_email_raw," +
			" restricted_pii_phone_raw = EXCLUDED.restricted_pii_phone_raw," +
			" restricted_pii_address_raw = EXCLUDED.restricted_pii_address_raw," +
			" profile_url = EXCLUDED.profile_url, source_path = EXCLUDED.source_path," +
			" parse_confidence = EXCLUDED.parse_confidence, run_id = EXCLUDED.run_id, updated_at = EXCLUDED.updated_at"

		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"run_id": runID}).Error("Failed to upsert canonical members")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert canonical members")
		}
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"run_id": runID, "count": len(members)}).Debug("Upserted canonical members")
	return nil
}

// Get retrieves a canonical member by member_id
func (r *Repository) Get(ctx context.Context, memberID string) (*models.CanonicalMember, error) {
	ctx, span := tracing.StartSpan(ctx, "canonicalmember.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("canonical_members")
	sb.Where(sb.Equal("member_id", memberID))

	query, args := sb.Build()
	var member models.CanonicalMember
	if err := r.db.GetContext(ctx, &member, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("member %s not found", memberID))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get canonical member")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get canonical member")
	}

	return &member, nil
}

// ListFilter narrows List results.
type ListFilter struct {
	Active   *bool
	Page     int
	PageSize int
}

// List retrieves a page of canonical members in legacy id order, plus the
// total count for the filter.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.CanonicalMember, int, error) {
	ctx, span := tracing.StartSpan(ctx, "canonicalmember.Repository.List")
	defer span.End()

	if filter.PageSize < 1 || filter.PageSize > 500 {
		filter.PageSize = 100
	}
	if filter.Page < 1 {
		filter.Page = 1
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("canonical_members")
	if filter.Active != nil {
		sb.Where(sb.Equal("active", *filter.Active))
	}
	// member_id is a hash; legacy id order is the one humans expect.
	sb.OrderBy("length(legacy_member_id)", "legacy_member_id")
	sb.Limit(filter.PageSize)
	sb.Offset((filter.Page - 1) * filter.PageSize)

	query, args := sb.Build()
	var members []models.CanonicalMember
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list canonical members")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list canonical members")
	}

	cb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	cb.Select("count(*)")
	cb.From("canonical_members")
	if filter.Active != nil {
		cb.Where(cb.Equal("active", *filter.Active))
	}

	query, args = cb.Build()
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count canonical members")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count canonical members")
	}

	return members, total, nil
}
