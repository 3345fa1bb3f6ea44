// Package canonicalizer builds the canonical member table from raw
// extraction rows and activity evidence. The engine is a pure batch
// transformation: it reads complete input tables, produces fresh output
// tables, and mutates nothing it was given. Two runs over the same inputs,
// even with rows reordered, produce set-equal output.
package canonicalizer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/classifier"
	"github.com/Ramsey-B/clover/pkg/coverage"
	"github.com/Ramsey-B/clover/pkg/dedup"
	"github.com/Ramsey-B/clover/pkg/evidence"
	"github.com/Ramsey-B/clover/pkg/identity"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
	"github.com/Ramsey-B/clover/pkg/policy"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// ErrDuplicateLegacyID reports an upstream contract violation: two raw rows
// share a legacy_member_id. The run stops rather than picking one, since
// continuing would make canonical output ambiguous.
var ErrDuplicateLegacyID = errors.New("duplicate legacy_member_id in raw extraction")

// Engine runs the canonicalization pipeline under one policy.
type Engine struct {
	logger ectologger.Logger
	policy policy.Policy
}

// NewEngine creates an engine after validating the policy.
func NewEngine(logger ectologger.Logger, pol policy.Policy) (*Engine, error) {
	if err := pol.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		logger: logger,
		policy: pol,
	}, nil
}

// Run executes the full pipeline: identity derivation, evidence
// aggregation, classification, canonicalization, duplicate detection, and
// coverage reporting. Raw rows whose identity derivation fails are excluded
// and logged, never silently dropped. A duplicate legacy id aborts the run.
func (e *Engine) Run(ctx context.Context, raw []models.RawMemberExtraction, evidenceRows []models.ActivityEvidence) (*models.RunResult, error) {
	ctx, span := tracing.StartSpan(ctx, "canonicalizer.Engine.Run")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"policy_version": e.policy.Version,
		"raw_rows":       len(raw),
		"evidence_rows":  len(evidenceRows),
	})
	log.Info("Starting canonicalization run")

	if err := checkDuplicateLegacyIDs(raw); err != nil {
		log.WithError(err).Error("Raw extraction violates legacy id uniqueness")
		return nil, err
	}

	agg := evidence.Aggregate(evidenceRows, e.policy)

	result := &models.RunResult{
		Members:    make([]models.CanonicalMember, 0, len(raw)),
		Exclusions: make([]models.Exclusion, 0),
	}

	rawByLegacyID := make(map[string]bool, len(raw))

	for _, row := range sortedRaw(raw) {
		rawByLegacyID[row.LegacyMemberID] = true

		member, err := e.canonicalizeRow(row, agg)
		if err != nil {
			log.WithError(err).WithFields(map[string]any{
				"source_path": row.SourcePath,
			}).Warn("Excluding raw row from canonical output")
			result.Exclusions = append(result.Exclusions, models.Exclusion{
				LegacyMemberID: row.LegacyMemberID,
				SourcePath:     row.SourcePath,
				Reason:         models.ExclusionReasonInvalidIdentifier,
				Detail:         err.Error(),
			})
			continue
		}
		result.Members = append(result.Members, member)
	}

	result.Evidence = joinEvidence(evidenceRows)

	orphans := 0
	for legacyID, group := range agg.ByLegacyID {
		if !rawByLegacyID[legacyID] {
			orphans += group.Count
		}
	}

	result.Duplicates = dedup.Detect(e.logger, e.policy, result.Members)

	activeCount := 0
	for _, m := range result.Members {
		if m.Active {
			activeCount++
		}
	}

	result.Stats = models.RunStats{
		RawRowCount:           len(raw),
		CanonicalCount:        len(result.Members),
		ActiveCount:           activeCount,
		EvidenceRowCount:      len(evidenceRows),
		LinkedEvidenceCount:   agg.LinkedCount,
		UnlinkedEvidenceCount: agg.UnlinkedCount,
		OrphanEvidenceCount:   orphans,
		ExcludedRowCount:      len(result.Exclusions),
		DuplicateGroupCount:   len(result.Duplicates),
	}

	result.Coverage = coverage.Report(result.Members, models.CoverageAudit{
		UnlinkedEvidenceCount: agg.UnlinkedCount,
		OrphanEvidenceCount:   orphans,
		ExcludedRowCount:      len(result.Exclusions),
	})

	log.WithFields(map[string]any{
		"canonical_count":  result.Stats.CanonicalCount,
		"active_count":     result.Stats.ActiveCount,
		"excluded_count":   result.Stats.ExcludedRowCount,
		"orphan_evidence":  result.Stats.OrphanEvidenceCount,
		"duplicate_groups": result.Stats.DuplicateGroupCount,
	}).Info("Canonicalization run complete")

	return result, nil
}

// canonicalizeRow produces exactly one canonical member from one raw row.
// Public fields are copied with whitespace collapsing only; restricted
// fields are copied verbatim into the restricted group; no field is ever
// inferred.
func (e *Engine) canonicalizeRow(row models.RawMemberExtraction, agg evidence.Aggregation) (models.CanonicalMember, error) {
	memberID, err := identity.DeriveMemberID(row.LegacyMemberID)
	if err != nil {
		return models.CanonicalMember{}, err
	}

	group := agg.Lookup(row.LegacyMemberID)

	decision := classifier.Classify(classifier.Signals{
		EventLinkedHigh: group.EventLinkedHigh,
		// Presence only. The content of the restricted value is never read.
		LoginPresence: row.RestrictedLastLoginRaw != "",
	})

	return models.CanonicalMember{
		MemberID:             memberID,
		LegacyMemberID:       row.LegacyMemberID,
		LegacyUsername:       normalizers.CollapseWhitespace(row.LegacyUsername),
		NameDisplay:          normalizers.CollapseWhitespace(row.NameDisplay),
		JoinedRaw:            normalizers.CollapseWhitespace(row.JoinedRaw),
		ClubIDs:              normalizers.CollapseWhitespace(row.ClubIDs),
		ClubNames:            normalizers.CollapseWhitespace(row.ClubNames),
		ClubLastValidatedRaw: normalizers.CollapseWhitespace(row.ClubLastValidatedRaw),
		HasPhoto:             row.HasPhoto,
		Active:               decision.Active,
		ActiveConfidence:     decision.Confidence,
		EvidenceCount:        group.Count,
		EvidenceSummary:      group.Summary(),
		RestrictedFields: models.RestrictedFields{
			RestrictedLastLoginRaw:  row.RestrictedLastLoginRaw,
			RestrictedPIIEmailRaw:   row.RestrictedPIIEmailRaw,
			RestrictedPIIPhoneRaw:   row.RestrictedPIIPhoneRaw,
			RestrictedPIIAddressRaw: row.RestrictedPIIAddressRaw,
		},
		ProfileURL:      e.policy.ProfileURL(row.LegacyMemberID),
		SourcePath:      row.SourcePath,
		ParseConfidence: row.ParseConfidence,
	}, nil
}

// checkDuplicateLegacyIDs fails with every offending id named so the
// upstream adapter can be fixed in one pass.
func checkDuplicateLegacyIDs(raw []models.RawMemberExtraction) error {
	seen := make(map[string]int, len(raw))
	for _, row := range raw {
		seen[row.LegacyMemberID]++
	}

	var dups []string
	for id, n := range seen {
		if id != "" && n > 1 {
			dups = append(dups, id)
		}
	}
	if len(dups) == 0 {
		return nil
	}
	sort.Strings(dups)
	return fmt.Errorf("%w: %s", ErrDuplicateLegacyID, strings.Join(dups, ", "))
}

// sortedRaw returns a copy of the raw table in canonical order: numeric
// legacy ids ascending, then non-numeric ids lexicographically. Input order
// never influences output.
func sortedRaw(raw []models.RawMemberExtraction) []models.RawMemberExtraction {
	out := make([]models.RawMemberExtraction, len(raw))
	copy(out, raw)
	sort.SliceStable(out, func(i, j int) bool {
		return legacyIDLess(out[i].LegacyMemberID, out[j].LegacyMemberID)
	})
	return out
}

func legacyIDLess(a, b string) bool {
	an, aerr := strconv.ParseInt(a, 10, 64)
	bn, berr := strconv.ParseInt(b, 10, 64)
	switch {
	case aerr == nil && berr == nil:
		return an < bn
	case aerr == nil:
		return true
	case berr == nil:
		return false
	default:
		return a < b
	}
}

// joinEvidence re-emits the evidence table with derived member ids attached
// where the legacy id resolves, in a fixed deterministic order. This is the
// audit-trail companion to the canonical table; rows are copied, never
// mutated in place.
func joinEvidence(rows []models.ActivityEvidence) []models.ActivityEvidence {
	out := make([]models.ActivityEvidence, len(rows))
	copy(out, rows)

	for i := range out {
		if out[i].LegacyMemberID == "" {
			out[i].MemberID = ""
			continue
		}
		memberID, err := identity.DeriveMemberID(out[i].LegacyMemberID)
		if err != nil {
			// Unresolvable ids stay unlinked; the row still appears in
			// the audit output.
			out[i].MemberID = ""
			continue
		}
		out[i].MemberID = memberID
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.MemberID != b.MemberID {
			return a.MemberID < b.MemberID
		}
		if a.EvidenceType != b.EvidenceType {
			return a.EvidenceType < b.EvidenceType
		}
		if a.EventID != b.EventID {
			return a.EventID < b.EventID
		}
		if a.SourcePath != b.SourcePath {
			return a.SourcePath < b.SourcePath
		}
		return a.EvidenceID < b.EvidenceID
	})

	return out
}
