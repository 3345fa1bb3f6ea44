package models

// Confidence is the shared high/medium/low scale used for both parse
// confidence on raw extraction rows and activity confidence on canonical
// members.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Valid reports whether the confidence is one of the three known tiers.
func (c Confidence) Valid() bool {
	return c == ConfidenceHigh || c == ConfidenceMedium || c == ConfidenceLow
}

// RawMemberExtraction is one row of the stage-1 extraction table, one per
// mirrored profile page. It is an immutable input to the engine: the engine
// never regenerates or mutates these rows. legacy_member_id is required and
// must be unique within the table; a duplicate is an upstream contract
// violation that aborts the run.
type RawMemberExtraction struct {
	LegacyMemberID          string     `json:"legacy_member_id" db:"legacy_member_id"`
	LegacyUsername          string     `json:"legacy_username" db:"legacy_username"`
	NameDisplay             string     `json:"name_display" db:"name_display"`
	JoinedRaw               string     `json:"joined_raw" db:"joined_raw"`
	ClubIDs                 string     `json:"club_ids" db:"club_ids"`
	ClubNames               string     `json:"club_names" db:"club_names"`
	ClubLastValidatedRaw    string     `json:"club_last_validated_raw" db:"club_last_validated_raw"`
	HasPhoto                string     `json:"has_photo" db:"has_photo"` // "1"/"0", copied verbatim
	RestrictedLastLoginRaw  string     `json:"restricted_last_login_raw" db:"restricted_last_login_raw"`
	RestrictedPIIEmailRaw   string     `json:"restricted_pii_email_raw" db:"restricted_pii_email_raw"`
	RestrictedPIIPhoneRaw   string     `json:"restricted_pii_phone_raw" db:"restricted_pii_phone_raw"`
	RestrictedPIIAddressRaw string     `json:"restricted_pii_address_raw" db:"restricted_pii_address_raw"`
	SourcePath              string     `json:"source_path" db:"source_path"`
	ParseConfidence         Confidence `json:"parse_confidence" db:"parse_confidence"`
}

// RestrictedFields is the hidden-by-default field group on a canonical
// member. Downstream consumers must not render these columns unless
// explicitly asked to. Only the presence of LastLoginRaw (never its content)
// may influence classification.
type RestrictedFields struct {
	RestrictedLastLoginRaw  string `json:"restricted_last_login_raw" db:"restricted_last_login_raw"`
	RestrictedPIIEmailRaw   string `json:"restricted_pii_email_raw" db:"restricted_pii_email_raw"`
	RestrictedPIIPhoneRaw   string `json:"restricted_pii_phone_raw" db:"restricted_pii_phone_raw"`
	RestrictedPIIAddressRaw string `json:"restricted_pii_address_raw" db:"restricted_pii_address_raw"`
}

// CanonicalMember is the engine's primary output row, one per distinct
// legacy_member_id. MemberID is a pure function of LegacyMemberID, so an
// identical input set always yields an identical output set regardless of
// row order.
type CanonicalMember struct {
	MemberID             string     `json:"member_id" db:"member_id"`
	LegacyMemberID       string     `json:"legacy_member_id" db:"legacy_member_id"`
	LegacyUsername       string     `json:"legacy_username" db:"legacy_username"`
	NameDisplay          string     `json:"name_display" db:"name_display"`
	JoinedRaw            string     `json:"joined_raw" db:"joined_raw"`
	ClubIDs              string     `json:"club_ids" db:"club_ids"`
	ClubNames            string     `json:"club_names" db:"club_names"`
	ClubLastValidatedRaw string     `json:"club_last_validated_raw" db:"club_last_validated_raw"`
	HasPhoto             string     `json:"has_photo" db:"has_photo"`
	Active               bool       `json:"active" db:"active"`
	ActiveConfidence     Confidence `json:"active_confidence" db:"active_confidence"`
	EvidenceCount        int        `json:"evidence_count" db:"evidence_count"`
	EvidenceSummary      string     `json:"evidence_summary" db:"evidence_summary"`

	RestrictedFields

	ProfileURL      string     `json:"profile_url" db:"profile_url"`
	SourcePath      string     `json:"source_path" db:"source_path"`
	ParseConfidence Confidence `json:"parse_confidence" db:"parse_confidence"`
}

// CanonicalMemberListResponse is the review API response for listing
// canonical members.
type CanonicalMemberListResponse struct {
	Items      []CanonicalMember `json:"items"`
	TotalCount int               `json:"total_count"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
}
