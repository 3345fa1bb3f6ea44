package models

import (
	"encoding/json"
	"time"
)

// Exclusion reasons.
const (
	ExclusionReasonInvalidIdentifier = "invalid_identifier"
)

// Exclusion records a raw row that could not be canonicalized. Excluded rows
// are logged and counted, never silently dropped.
type Exclusion struct {
	LegacyMemberID string `json:"legacy_member_id" db:"legacy_member_id"`
	SourcePath     string `json:"source_path" db:"source_path"`
	Reason         string `json:"reason" db:"reason"`
	Detail         string `json:"detail,omitempty" db:"detail"`
}

// RunStats summarizes one canonicalization run.
type RunStats struct {
	RawRowCount           int `json:"raw_row_count" db:"raw_row_count"`
	CanonicalCount        int `json:"canonical_count" db:"canonical_count"`
	ActiveCount           int `json:"active_count" db:"active_count"`
	EvidenceRowCount      int `json:"evidence_row_count" db:"evidence_row_count"`
	LinkedEvidenceCount   int `json:"linked_evidence_count" db:"linked_evidence_count"`
	UnlinkedEvidenceCount int `json:"unlinked_evidence_count" db:"unlinked_evidence_count"`
	OrphanEvidenceCount   int `json:"orphan_evidence_count" db:"orphan_evidence_count"`
	ExcludedRowCount      int `json:"excluded_row_count" db:"excluded_row_count"`
	DuplicateGroupCount   int `json:"duplicate_group_count" db:"duplicate_group_count"`
}

// RunResult is the complete output of one engine run: three primary tables,
// the joined evidence passthrough, the exclusion log, coverage, and stats.
// Every table is built fresh; nothing is mutated across runs.
type RunResult struct {
	Members    []CanonicalMember         `json:"members"`
	Evidence   []ActivityEvidence        `json:"evidence"`
	Duplicates []DuplicateCandidateGroup `json:"duplicates"`
	Coverage   FieldCoverageReport       `json:"coverage"`
	Exclusions []Exclusion               `json:"exclusions"`
	Stats      RunStats                  `json:"stats"`
}

// ActiveMembers returns the ACTIVE subset of the canonical table, preserving
// order. The slice shares backing rows with Members; callers must not
// mutate them.
func (r *RunResult) ActiveMembers() []CanonicalMember {
	out := make([]CanonicalMember, 0, len(r.Members))
	for _, m := range r.Members {
		if m.Active {
			out = append(out, m)
		}
	}
	return out
}

// Run is a persisted canonicalization run as stored by the run report
// repository and served by the review API.
type Run struct {
	ID            string `json:"id" db:"id"`
	PolicyVersion string `json:"policy_version" db:"policy_version"`

	RunStats

	// Coverage is scanned through the repository's jsonb wrapper, not
	// directly off the row.
	Coverage  json.RawMessage `json:"coverage" db:"-"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// RunListResponse is the review API response for listing runs.
type RunListResponse struct {
	Items      []Run `json:"items"`
	TotalCount int   `json:"total_count"`
}
