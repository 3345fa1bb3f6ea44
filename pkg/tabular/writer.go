package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Output column orders. These are part of the pipeline contract with
// downstream spreadsheet tooling; reordering them is a breaking change.
var (
	memberColumns = []string{
		"member_id", "legacy_member_id", "legacy_username", "name_display", "joined_raw",
		"club_ids", "club_names", "club_last_validated_raw", "has_photo",
		"active", "active_confidence", "evidence_count", "evidence_summary",
		"restricted_last_login_raw", "restricted_pii_email_raw", "restricted_pii_phone_raw", "restricted_pii_address_raw",
		"profile_url", "source_path", "parse_confidence",
	}

	activeMemberColumns = []string{
		"member_id", "legacy_member_id", "legacy_username", "name_display",
		"active", "active_confidence", "evidence_count", "evidence_summary",
		"profile_url",
	}

	evidenceColumns = []string{
		"evidence_id", "member_id", "legacy_member_id", "evidence_type", "confidence", "privacy_flag",
		"event_id", "event_title", "event_date_raw",
		"source_system", "source_path", "source_url", "link_target", "context_text",
	}

	duplicateColumns = []string{
		"duplicate_key", "member_ids", "legacy_member_ids", "legacy_usernames", "reason", "recommended_action",
	}

	exclusionColumns = []string{
		"legacy_member_id", "source_path", "reason", "detail",
	}
)

func writeTable(w io.Writer, columns []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// activeFlag renders the classification as "1"/"0". The stage2 files keep
// the legacy flag vocabulary so downstream spreadsheet tooling keeps working.
func activeFlag(active bool) string {
	if active {
		return "1"
	}
	return "0"
}

func memberRow(m models.CanonicalMember) []string {
	return []string{
		m.MemberID, m.LegacyMemberID, m.LegacyUsername, m.NameDisplay, m.JoinedRaw,
		m.ClubIDs, m.ClubNames, m.ClubLastValidatedRaw, m.HasPhoto,
		activeFlag(m.Active), string(m.ActiveConfidence), strconv.Itoa(m.EvidenceCount), m.EvidenceSummary,
		m.RestrictedLastLoginRaw, m.RestrictedPIIEmailRaw, m.RestrictedPIIPhoneRaw, m.RestrictedPIIAddressRaw,
		m.ProfileURL, m.SourcePath, string(m.ParseConfidence),
	}
}

// WriteMembers writes the full canonical member table, restricted columns
// included. This file is the internal migration artifact and must never be
// served or published as-is.
func WriteMembers(w io.Writer, members []models.CanonicalMember) error {
	rows := make([][]string, 0, len(members))
	for _, m := range members {
		rows = append(rows, memberRow(m))
	}
	return writeTable(w, memberColumns, rows)
}

// WriteActiveMembers writes the ACTIVE-only convenience view. It carries no
// restricted columns, so it is safe to hand to the website team directly.
func WriteActiveMembers(w io.Writer, members []models.CanonicalMember) error {
	rows := make([][]string, 0, len(members))
	for _, m := range members {
		if !m.Active {
			continue
		}
		rows = append(rows, []string{
			m.MemberID, m.LegacyMemberID, m.LegacyUsername, m.NameDisplay,
			activeFlag(m.Active), string(m.ActiveConfidence), strconv.Itoa(m.EvidenceCount), m.EvidenceSummary,
			m.ProfileURL,
		})
	}
	return writeTable(w, activeMemberColumns, rows)
}

// WriteEvidence writes the joined evidence passthrough table.
func WriteEvidence(w io.Writer, evidence []models.ActivityEvidence) error {
	rows := make([][]string, 0, len(evidence))
	for _, ev := range evidence {
		rows = append(rows, []string{
			ev.EvidenceID, ev.MemberID, ev.LegacyMemberID, string(ev.EvidenceType), string(ev.Confidence), ev.PrivacyFlag,
			ev.EventID, ev.EventTitle, ev.EventDateRaw,
			ev.SourceSystem, ev.SourcePath, ev.SourceURL, ev.LinkTarget, ev.ContextText,
		})
	}
	return writeTable(w, evidenceColumns, rows)
}

// WriteDuplicates writes the duplicate candidate report. List fields are
// comma-joined in member_id order.
func WriteDuplicates(w io.Writer, groups []models.DuplicateCandidateGroup) error {
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{
			g.DuplicateKey,
			strings.Join(g.MemberIDs, ","),
			strings.Join(g.LegacyMemberIDs, ","),
			strings.Join(g.LegacyUsernames, ","),
			g.Reason,
			g.RecommendedAction,
		})
	}
	return writeTable(w, duplicateColumns, rows)
}

// WriteExclusions writes the excluded-row log.
func WriteExclusions(w io.Writer, exclusions []models.Exclusion) error {
	rows := make([][]string, 0, len(exclusions))
	for _, e := range exclusions {
		rows = append(rows, []string{e.LegacyMemberID, e.SourcePath, e.Reason, e.Detail})
	}
	return writeTable(w, exclusionColumns, rows)
}
