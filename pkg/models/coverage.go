package models

// FieldCoverage is the fill statistic for one declared canonical field.
type FieldCoverage struct {
	Field   string  `json:"field"`
	Filled  int     `json:"filled"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// CoverageAudit carries the row-level problems a run recovered from. These
// are surfaced rather than dropped so the audit trail stays complete.
type CoverageAudit struct {
	UnlinkedEvidenceCount int `json:"unlinked_evidence_count"`
	OrphanEvidenceCount   int `json:"orphan_evidence_count"`
	ExcludedRowCount      int `json:"excluded_row_count"`
}

// FieldCoverageReport is derived statistics over one canonical table.
// Pure output; it has no identity and no lifecycle beyond the run that
// computed it.
type FieldCoverageReport struct {
	TotalMembers int             `json:"total_members"`
	Fields       []FieldCoverage `json:"fields"`
	Audit        CoverageAudit   `json:"audit"`
}
