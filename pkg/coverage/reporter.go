// Package coverage computes per-field fill statistics over a canonical
// member table. A pure function of its input; nothing is mutated.
package coverage

import (
	"fmt"
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
)

// field declares one reported column.
type field struct {
	name  string
	value func(*models.CanonicalMember) string
}

// declaredFields is the reported column set, in output order. Boolean-ish
// columns carry "0"/"1" sentinels; a "0" is a real value and counts as
// filled, which the non-blank rule below already honors.
var declaredFields = []field{
	{name: "legacy_username", value: func(m *models.CanonicalMember) string { return m.LegacyUsername }},
	{name: "name_display", value: func(m *models.CanonicalMember) string { return m.NameDisplay }},
	{name: "joined_raw", value: func(m *models.CanonicalMember) string { return m.JoinedRaw }},
	{name: "club_ids", value: func(m *models.CanonicalMember) string { return m.ClubIDs }},
	{name: "club_names", value: func(m *models.CanonicalMember) string { return m.ClubNames }},
	{name: "club_last_validated_raw", value: func(m *models.CanonicalMember) string { return m.ClubLastValidatedRaw }},
	{name: "has_photo", value: func(m *models.CanonicalMember) string { return m.HasPhoto }},
	{name: "evidence_summary", value: func(m *models.CanonicalMember) string { return m.EvidenceSummary }},
	// Presence only; the restricted value itself is never interpreted.
	{name: "restricted_last_login_raw", value: func(m *models.CanonicalMember) string { return m.RestrictedLastLoginRaw }},
}

// Report computes fill statistics for the declared fields plus the audit
// block carried through from the run.
func Report(members []models.CanonicalMember, audit models.CoverageAudit) models.FieldCoverageReport {
	total := len(members)

	report := models.FieldCoverageReport{
		TotalMembers: total,
		Fields:       make([]models.FieldCoverage, 0, len(declaredFields)),
		Audit:        audit,
	}

	for _, f := range declaredFields {
		filled := 0
		for i := range members {
			if isFilled(f.value(&members[i])) {
				filled++
			}
		}
		pct := 0.0
		if total > 0 {
			pct = float64(filled) / float64(total) * 100.0
		}
		report.Fields = append(report.Fields, models.FieldCoverage{
			Field:   f.name,
			Filled:  filled,
			Total:   total,
			Percent: pct,
		})
	}

	return report
}

// isFilled treats whitespace-only values as blank. Any other value counts,
// including the "0" sentinel on boolean-ish fields.
func isFilled(value string) bool {
	return strings.TrimSpace(value) != ""
}

// Markdown renders the report in the shape stakeholders review.
func Markdown(r models.FieldCoverageReport) string {
	var b strings.Builder
	b.WriteString("# Field coverage report\n\n")
	fmt.Fprintf(&b, "- total_members: %d\n", r.TotalMembers)
	b.WriteString("\n## Coverage\n\n")
	for _, f := range r.Fields {
		fmt.Fprintf(&b, "- %s: %d/%d (%.1f%%)\n", f.Field, f.Filled, f.Total, f.Percent)
	}
	b.WriteString("\n## Audit\n\n")
	fmt.Fprintf(&b, "- unlinked_evidence_count: %d\n", r.Audit.UnlinkedEvidenceCount)
	fmt.Fprintf(&b, "- orphan_evidence_count: %d\n", r.Audit.OrphanEvidenceCount)
	fmt.Fprintf(&b, "- excluded_row_count: %d\n", r.Audit.ExcludedRowCount)
	return b.String()
}
