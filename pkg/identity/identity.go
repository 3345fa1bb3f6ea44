// Package identity derives stable canonical identifiers from legacy ones.
// The scheme is a fixed, versioned one-way function: identical inputs across
// independent runs and processes always produce identical output.
package identity

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidIdentifier is returned when a legacy member id is empty or not
// representable as an identifier token. Callers exclude such rows; they must
// never coerce them.
var ErrInvalidIdentifier = errors.New("invalid legacy identifier")

const (
	// memberIDPrefix namespaces derived ids so they cannot be confused
	// with legacy ids in mixed datasets.
	memberIDPrefix = "m_"

	// hashInputPrefix is the versioned input-encoding scheme. Changing it
	// (or the hash) requires a policy version bump.
	hashInputPrefix = "legacy_member_id:"

	// hashHexLen is the truncated hex prefix length of the sha1 digest.
	hashHexLen = 12
)

// DeriveMemberID returns the canonical member id for a legacy member id:
// "m_" + the first 12 hex chars of sha1("legacy_member_id:" + id).
//
// The id must be a non-empty token with no interior whitespace. Leading and
// trailing whitespace is rejected rather than trimmed: a padded id means the
// upstream extractor misbehaved, and silently trimming would let two spellings
// of the same id derive different rows elsewhere.
func DeriveMemberID(legacyMemberID string) (string, error) {
	if legacyMemberID == "" {
		return "", fmt.Errorf("%w: empty legacy_member_id", ErrInvalidIdentifier)
	}
	if strings.TrimSpace(legacyMemberID) != legacyMemberID {
		return "", fmt.Errorf("%w: legacy_member_id %q has surrounding whitespace", ErrInvalidIdentifier, legacyMemberID)
	}
	if strings.ContainsAny(legacyMemberID, " \t\r\n") {
		return "", fmt.Errorf("%w: legacy_member_id %q contains whitespace", ErrInvalidIdentifier, legacyMemberID)
	}

	sum := sha1.Sum([]byte(hashInputPrefix + legacyMemberID))
	return memberIDPrefix + hex.EncodeToString(sum[:])[:hashHexLen], nil
}

// DeriveEvidenceID returns a deterministic evidence id from the identifying
// parts of an evidence row, so re-extraction of unchanged pages yields the
// same id. Used by the ingest decoder when an input row carries no
// evidence_id of its own; the engine passes ids through untouched.
func DeriveEvidenceID(parts ...string) string {
	sum := sha1.Sum([]byte(strings.Join(parts, "||")))
	return hex.EncodeToString(sum[:])
}
