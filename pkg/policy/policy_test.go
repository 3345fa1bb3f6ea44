package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidate_RejectsBrokenPolicies(t *testing.T) {
	pol := Default()
	pol.Version = ""
	assert.Error(t, pol.Validate())

	pol = Default()
	pol.EventLinkedTypes = nil
	assert.Error(t, pol.Validate())

	pol = Default()
	pol.ProfileURLTemplate = "http://www.footbag.org/members"
	assert.Error(t, pol.Validate(), "template without %s placeholder must fail")

	pol = Default()
	pol.DuplicateKeyNormalizers = nil
	assert.Error(t, pol.Validate())

	pol = Default()
	pol.DuplicateKeyNormalizers = []string{"soundex"}
	assert.ErrorContains(t, pol.Validate(), "unknown normalizer")
}

func TestIsEventLinked(t *testing.T) {
	pol := Default()
	assert.True(t, pol.IsEventLinked(models.EvidenceEventRoleContactLink))
	assert.False(t, pol.IsEventLinked(models.EvidenceGalleryCreditText))

	pol.EventLinkedTypes = append(pol.EventLinkedTypes, models.EvidenceEventMemberLink)
	assert.True(t, pol.IsEventLinked(models.EvidenceEventMemberLink))
}

func TestIsRestricted(t *testing.T) {
	pol := Default()
	assert.True(t, pol.IsRestricted("restricted_pii_email_raw"))
	assert.False(t, pol.IsRestricted("name_display"))
}

func TestProfileURL(t *testing.T) {
	assert.Equal(t,
		"http://www.footbag.org/members/profile/12007",
		Default().ProfileURL("12007"),
	)
}
