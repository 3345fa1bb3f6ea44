package models

import (
	"sort"
	"strconv"
	"strings"
)

// EvidenceType is an open-ended category tag for activity signals. New
// extraction adapters introduce new types without any change here; whether a
// type can establish ACTIVE status is decided by policy, not by this type.
type EvidenceType string

// Types observed from the current extraction adapters. This list is not
// exhaustive and nothing in the engine treats it as closed.
const (
	EvidenceEventRoleContactLink EvidenceType = "event_role_contact_link"
	EvidenceEventRoleLink        EvidenceType = "event_role_link"
	EvidenceEventMemberLink      EvidenceType = "event_member_link"
	EvidenceGalleryCreditText    EvidenceType = "gallery_credit_text"
	EvidenceGalleryUploaderText  EvidenceType = "gallery_uploader_text"
	EvidenceGalleryAuthorText    EvidenceType = "gallery_author_text"
)

// PrivacyPublic is the only privacy flag evidence rows may carry; evidence
// is never sourced from restricted pages.
const PrivacyPublic = "public"

// ActivityEvidence is one observed activity signal with full provenance.
// LegacyMemberID may be blank for name-only, unlinked evidence; such rows
// count toward audit statistics but never toward any member's
// classification. MemberID is blank on input and filled by the engine when
// the legacy id resolves, for the joined audit-trail output.
type ActivityEvidence struct {
	EvidenceID       string       `json:"evidence_id" db:"evidence_id"`
	MemberID         string       `json:"member_id" db:"member_id"`
	LegacyMemberID   string       `json:"legacy_member_id" db:"legacy_member_id"`
	EvidenceType     EvidenceType `json:"evidence_type" db:"evidence_type"`
	Confidence       Confidence   `json:"confidence" db:"confidence"`
	PrivacyFlag      string       `json:"privacy_flag" db:"privacy_flag"`
	EvidenceNameText string       `json:"evidence_name_text" db:"evidence_name_text"`
	EventID          string       `json:"event_id" db:"event_id"`
	EventTitle       string       `json:"event_title" db:"event_title"`
	EventDateRaw     string       `json:"event_date_raw" db:"event_date_raw"`
	SourceSystem     string       `json:"source_system" db:"source_system"`
	SourcePath       string       `json:"source_path" db:"source_path"`
	SourceURL        string       `json:"source_url" db:"source_url"`
	LinkTarget       string       `json:"link_target" db:"link_target"`
	ContextText      string       `json:"context_text" db:"context_text"`
}

// EvidenceAggregate summarizes all evidence rows linked to one legacy member
// id. Count and TypeCounts cover every linked row; EventLinkedHigh covers
// only rows that are classification-eligible under policy. The audit trail
// stays complete even though the classification predicate is narrow.
type EvidenceAggregate struct {
	LegacyMemberID  string
	Count           int
	TypeCounts      map[EvidenceType]int
	EventLinkedHigh bool
}

// Summary renders the type frequency multiset as "type:count" pairs, sorted
// lexicographically by type and joined with ";". The same evidence set
// always serializes identically regardless of input row order.
func (a *EvidenceAggregate) Summary() string {
	if a == nil || len(a.TypeCounts) == 0 {
		return ""
	}
	types := make([]string, 0, len(a.TypeCounts))
	for t := range a.TypeCounts {
		types = append(types, string(t))
	}
	sort.Strings(types)

	pairs := make([]string, len(types))
	for i, t := range types {
		pairs[i] = t + ":" + strconv.Itoa(a.TypeCounts[EvidenceType(t)])
	}
	return strings.Join(pairs, ";")
}
