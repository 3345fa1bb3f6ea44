package tabular

import (
	"github.com/Ramsey-B/clover/pkg/identity"
	"github.com/Ramsey-B/clover/pkg/models"
)

// field returns the first non-empty value among the named columns. Extraction
// adapters renamed a few columns over time (last_login_raw became
// restricted_last_login_raw once privacy partitioning landed), so decoders
// accept both spellings.
func field(row map[string]string, names ...string) string {
	for _, n := range names {
		if v := row[n]; v != "" {
			return v
		}
	}
	return ""
}

// DecodeRawMembers maps a parsed extraction table onto typed rows. Values are
// carried verbatim; normalization is the engine's job, not the reader's.
func DecodeRawMembers(t *Table) []models.RawMemberExtraction {
	out := make([]models.RawMemberExtraction, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, models.RawMemberExtraction{
			LegacyMemberID:          row["legacy_member_id"],
			LegacyUsername:          row["legacy_username"],
			NameDisplay:             row["name_display"],
			JoinedRaw:               row["joined_raw"],
			ClubIDs:                 row["club_ids"],
			ClubNames:               row["club_names"],
			ClubLastValidatedRaw:    row["club_last_validated_raw"],
			HasPhoto:                row["has_photo"],
			RestrictedLastLoginRaw:  field(row, "restricted_last_login_raw", "last_login_raw"),
			RestrictedPIIEmailRaw:   field(row, "restricted_pii_email_raw", "pii_email_raw"),
			RestrictedPIIPhoneRaw:   field(row, "restricted_pii_phone_raw", "pii_phone_raw"),
			RestrictedPIIAddressRaw: field(row, "restricted_pii_address_raw", "pii_address_raw"),
			SourcePath:              row["source_path"],
			ParseConfidence:         models.Confidence(row["parse_confidence"]),
		})
	}
	return out
}

// DecodeEvidence maps a parsed evidence table onto typed rows. A row without
// an evidence_id gets a deterministic one derived from its identifying parts,
// so adapters that predate stable evidence ids still produce stable output.
func DecodeEvidence(t *Table) []models.ActivityEvidence {
	out := make([]models.ActivityEvidence, 0, len(t.Rows))
	for _, row := range t.Rows {
		ev := models.ActivityEvidence{
			EvidenceID:       row["evidence_id"],
			LegacyMemberID:   row["legacy_member_id"],
			EvidenceType:     models.EvidenceType(row["evidence_type"]),
			Confidence:       models.Confidence(row["confidence"]),
			PrivacyFlag:      row["privacy_flag"],
			EvidenceNameText: field(row, "evidence_name_text", "legacy_username"),
			EventID:          row["event_id"],
			EventTitle:       row["event_title"],
			EventDateRaw:     row["event_date_raw"],
			SourceSystem:     row["source_system"],
			SourcePath:       row["source_path"],
			SourceURL:        row["source_url"],
			LinkTarget:       row["link_target"],
			ContextText:      row["context_text"],
		}
		if ev.EvidenceID == "" {
			ev.EvidenceID = identity.DeriveEvidenceID(
				string(ev.EvidenceType),
				ev.LegacyMemberID,
				ev.EventID,
				ev.SourcePath,
				ev.LinkTarget,
			)
		}
		out = append(out, ev)
	}
	return out
}
