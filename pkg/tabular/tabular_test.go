package tabular

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestParse_HeaderMappedRows(t *testing.T) {
	data := []byte("legacy_member_id,name_display\n12007,Josh Penney\n31504,Tuomas Karki\n")

	table, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"legacy_member_id", "name_display"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "12007", table.Rows[0]["legacy_member_id"])
	assert.Equal(t, "Tuomas Karki", table.Rows[1]["name_display"])
	assert.Empty(t, table.Warnings)
	assert.Equal(t, "utf-8", table.Encoding)
}

func TestParse_RaggedRowsPaddedAndTruncated(t *testing.T) {
	data := []byte("a,b,c\n1,2\n1,2,3,4\n")

	table, err := Parse(data)
	require.NoError(t, err)

	require.Len(t, table.Rows, 2)
	assert.Equal(t, "", table.Rows[0]["c"])
	assert.Equal(t, "3", table.Rows[1]["c"])

	require.Len(t, table.Warnings, 2)
	assert.Equal(t, 2, table.Warnings[0].Row)
	assert.Contains(t, table.Warnings[0].Message, "padding")
	assert.Equal(t, 3, table.Warnings[1].Row)
	assert.Contains(t, table.Warnings[1].Message, "truncating")
}

func TestParse_EmptyFileFails(t *testing.T) {
	_, err := Parse([]byte(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header row")
}

func TestParse_HeaderOnlyIsValid(t *testing.T) {
	table, err := Parse([]byte("evidence_id,evidence_type\n"))
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
}

func TestParse_UTF8BOMStripped(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a,b\n1,2\n")...)

	table, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "utf-8-bom", table.Encoding)
	assert.Equal(t, []string{"a", "b"}, table.Headers)
}

func TestParse_UTF16LE(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFE})
	for _, r := range "a,b\n1,ä\n" {
		var u [2]byte
		binary.LittleEndian.PutUint16(u[:], uint16(r))
		buf.Write(u[:])
	}

	table, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "utf-16le", table.Encoding)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "ä", table.Rows[0]["b"])
}

func TestParse_Latin1Fallback(t *testing.T) {
	// 0xE9 is é in Latin-1 and invalid as standalone UTF-8.
	data := []byte{'a', '\n', 0xE9, '\n'}

	table, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "latin-1", table.Encoding)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "é", table.Rows[0]["a"])
}

func TestDecodeRawMembers_MapsBothColumnSpellings(t *testing.T) {
	legacy, err := Parse([]byte(
		"legacy_member_id,legacy_username,name_display,last_login_raw,pii_email_raw,source_path,parse_confidence\n" +
			"12007,jp,Josh Penney,Sun Oct 30 08:52:07 2011,jp@example.org,members/profile/12007/index.html,high\n",
	))
	require.NoError(t, err)

	rows := DecodeRawMembers(legacy)
	require.Len(t, rows, 1)
	assert.Equal(t, "12007", rows[0].LegacyMemberID)
	assert.Equal(t, "Sun Oct 30 08:52:07 2011", rows[0].RestrictedLastLoginRaw)
	assert.Equal(t, "jp@example.org", rows[0].RestrictedPIIEmailRaw)
	assert.Equal(t, models.ConfidenceHigh, rows[0].ParseConfidence)

	current, err := Parse([]byte(
		"legacy_member_id,restricted_last_login_raw\n12007,present\n",
	))
	require.NoError(t, err)

	rows = DecodeRawMembers(current)
	require.Len(t, rows, 1)
	assert.Equal(t, "present", rows[0].RestrictedLastLoginRaw)
}

func TestDecodeEvidence_DerivesMissingEvidenceID(t *testing.T) {
	table, err := Parse([]byte(
		"evidence_id,evidence_type,legacy_member_id,event_id,source_path,link_target,confidence,privacy_flag\n" +
			",event_role_contact_link,12007,77,events/show/77/index.html,/members/profile/12007,high,public\n" +
			",event_role_contact_link,12007,77,events/show/77/index.html,/members/profile/12007,high,public\n" +
			",event_role_contact_link,31504,77,events/show/77/index.html,/members/profile/31504,high,public\n",
	))
	require.NoError(t, err)

	rows := DecodeEvidence(table)
	require.Len(t, rows, 3)
	assert.NotEmpty(t, rows[0].EvidenceID)
	// Same identifying parts, same id; different parts, different id.
	assert.Equal(t, rows[0].EvidenceID, rows[1].EvidenceID)
	assert.NotEqual(t, rows[0].EvidenceID, rows[2].EvidenceID)
	assert.Equal(t, models.EvidenceEventRoleContactLink, rows[0].EvidenceType)
}

func TestWriteMembers_FixedColumnOrder(t *testing.T) {
	m := models.CanonicalMember{
		MemberID:         "m_abc",
		LegacyMemberID:   "12007",
		NameDisplay:      "Josh Penney",
		Active:           true,
		ActiveConfidence: models.ConfidenceHigh,
		EvidenceCount:    2,
		EvidenceSummary:  "event_role_contact_link:2",
		ProfileURL:       "http://www.footbag.org/members/profile/12007",
		ParseConfidence:  models.ConfidenceHigh,
	}
	m.RestrictedLastLoginRaw = "Sun Oct 30 08:52:07 2011"

	var buf bytes.Buffer
	require.NoError(t, WriteMembers(&buf, []models.CanonicalMember{m}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(memberColumns, ","), lines[0])
	assert.Equal(t,
		"m_abc,12007,,Josh Penney,,,,,,1,high,2,event_role_contact_link:2,"+
			"Sun Oct 30 08:52:07 2011,,,,"+
			"http://www.footbag.org/members/profile/12007,,high",
		lines[1])
}

func TestWriteMembers_ActiveFlagVocabulary(t *testing.T) {
	members := []models.CanonicalMember{
		{MemberID: "m_on", LegacyMemberID: "1", Active: true, ActiveConfidence: models.ConfidenceMedium},
		{MemberID: "m_off", LegacyMemberID: "2", Active: false, ActiveConfidence: models.ConfidenceLow},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMembers(&buf, members))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	// The active column keeps the legacy 1/0 vocabulary, never true/false.
	assert.Contains(t, lines[1], ",1,medium,")
	assert.Contains(t, lines[2], ",0,low,")
	assert.NotContains(t, buf.String(), "true")
	assert.NotContains(t, buf.String(), "false")
}

func TestWriteActiveMembers_FiltersAndOmitsRestricted(t *testing.T) {
	active := models.CanonicalMember{MemberID: "m_a", LegacyMemberID: "1", Active: true, ActiveConfidence: models.ConfidenceMedium}
	active.RestrictedLastLoginRaw = "never in this file"
	inactive := models.CanonicalMember{MemberID: "m_b", LegacyMemberID: "2", Active: false, ActiveConfidence: models.ConfidenceLow}

	var buf bytes.Buffer
	require.NoError(t, WriteActiveMembers(&buf, []models.CanonicalMember{active, inactive}))

	out := buf.String()
	assert.Contains(t, out, "m_a,1,,,1,medium,0,,")
	assert.NotContains(t, out, "m_b")
	assert.NotContains(t, out, "restricted")
	assert.NotContains(t, out, "never in this file")
}

func TestWriteDuplicates_JoinsListFields(t *testing.T) {
	g := models.DuplicateCandidateGroup{
		DuplicateKey:      "josh penney",
		MemberIDs:         []string{"m_a", "m_b"},
		LegacyMemberIDs:   []string{"1001", "1002"},
		LegacyUsernames:   []string{"jp"},
		Reason:            models.DuplicateReasonSameName,
		RecommendedAction: models.RecommendedActionReview,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDuplicates(&buf, []models.DuplicateCandidateGroup{g}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(duplicateColumns, ","), lines[0])
	assert.Equal(t, `josh penney,"m_a,m_b","1001,1002",jp,same_normalized_name_display,review`, lines[1])
}

func TestWriteExclusions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExclusions(&buf, []models.Exclusion{{
		SourcePath: "members/profile/unknown/index.html",
		Reason:     models.ExclusionReasonInvalidIdentifier,
		Detail:     "empty legacy_member_id",
	}}))

	assert.Contains(t, buf.String(), "invalid_identifier")
	assert.Contains(t, buf.String(), "members/profile/unknown/index.html")
}
