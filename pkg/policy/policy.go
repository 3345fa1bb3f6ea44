// Package policy holds the versioned classification and privacy policy
// passed into every engine component. Nothing here is ambient: components
// receive a Policy value explicitly so policy changes stay auditable and
// testable independently of engine logic.
package policy

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

var validate = validator.New()

// Policy is the explicit, versioned configuration consulted by the engine.
// Version must be bumped whenever the id scheme or the classification rules
// change, so historical canonical ids stay distinguishable from new ones.
type Policy struct {
	// Version tags the policy and id scheme, e.g. "v1".
	Version string `validate:"required"`

	// EventLinkedTypes are the evidence types strong enough to establish
	// ACTIVE status on their own when carried with high confidence. The
	// classifier consults this set, never a hardcoded list.
	EventLinkedTypes []models.EvidenceType `validate:"min=1,dive,required"`

	// RestrictedFields names the canonical columns that are hidden by
	// default in every output surface.
	RestrictedFields []string `validate:"min=1,dive,required"`

	// DuplicateKeyNormalizers names the normalizer chain, applied in order,
	// that builds the duplicate-review key from name_display. Names resolve
	// against the normalizers registry.
	DuplicateKeyNormalizers []string `validate:"min=1,dive,required"`

	// ProfileURLTemplate synthesizes profile_url; %s is replaced with the
	// legacy member id.
	ProfileURLTemplate string `validate:"required,contains=%s"`
}

// Default returns the v1 policy: only the event contact-role link is
// event-linked, the four restricted raw fields are hidden, and profile URLs
// point at the mirrored legacy site.
func Default() Policy {
	return Policy{
		Version: "v1",
		EventLinkedTypes: []models.EvidenceType{
			models.EvidenceEventRoleContactLink,
		},
		RestrictedFields: []string{
			"restricted_last_login_raw",
			"restricted_pii_email_raw",
			"restricted_pii_phone_raw",
			"restricted_pii_address_raw",
		},
		DuplicateKeyNormalizers: []string{"ndisplayname"},
		ProfileURLTemplate:      "http://www.footbag.org/members/profile/%s",
	}
}

// Validate checks the policy for structural problems before a run starts.
func (p Policy) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}
	for _, name := range p.DuplicateKeyNormalizers {
		if _, ok := normalizers.Get(name); !ok {
			return fmt.Errorf("invalid policy: unknown normalizer %q", name)
		}
	}
	return nil
}

// IsEventLinked reports whether the evidence type belongs to the
// event-linked category.
func (p Policy) IsEventLinked(t models.EvidenceType) bool {
	for _, et := range p.EventLinkedTypes {
		if et == t {
			return true
		}
	}
	return false
}

// IsRestricted reports whether the named canonical column is restricted.
func (p Policy) IsRestricted(field string) bool {
	for _, f := range p.RestrictedFields {
		if f == field {
			return true
		}
	}
	return false
}

// ProfileURL renders the profile URL for a legacy member id.
func (p Policy) ProfileURL(legacyMemberID string) string {
	return strings.Replace(p.ProfileURLTemplate, "%s", legacyMemberID, 1)
}
