package evidence

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/policy"
)

func ev(legacyID string, evType models.EvidenceType, conf models.Confidence) models.ActivityEvidence {
	return models.ActivityEvidence{
		EvidenceID:     string(evType) + "|" + legacyID,
		LegacyMemberID: legacyID,
		EvidenceType:   evType,
		Confidence:     conf,
		PrivacyFlag:    models.PrivacyPublic,
		SourceSystem:   "events_show",
		SourcePath:     "events/show/1/index.html",
		SourceURL:      "http://www.footbag.org/events/show/1",
	}
}

func TestAggregate(t *testing.T) {
	pol := policy.Default()

	rows := []models.ActivityEvidence{
		ev("12007", models.EvidenceEventRoleContactLink, models.ConfidenceHigh),
		ev("12007", models.EvidenceGalleryCreditText, models.ConfidenceLow),
		ev("12007", models.EvidenceGalleryCreditText, models.ConfidenceLow),
		ev("31504", models.EvidenceEventMemberLink, models.ConfidenceHigh),
		ev("", models.EvidenceGalleryCreditText, models.ConfidenceLow),
	}

	agg := Aggregate(rows, pol)

	assert.Equal(t, 4, agg.LinkedCount)
	assert.Equal(t, 1, agg.UnlinkedCount)
	require.Len(t, agg.ByLegacyID, 2)

	m := agg.Lookup("12007")
	assert.Equal(t, 3, m.Count)
	assert.True(t, m.EventLinkedHigh)
	assert.Equal(t, "event_role_contact_link:1;gallery_credit_text:2", m.Summary())

	// event_member_link is not event-linked under the default policy, even
	// at high confidence.
	other := agg.Lookup("31504")
	assert.Equal(t, 1, other.Count)
	assert.False(t, other.EventLinkedHigh)
}

func TestAggregate_EventLinkedRequiresHighConfidence(t *testing.T) {
	pol := policy.Default()

	agg := Aggregate([]models.ActivityEvidence{
		ev("12007", models.EvidenceEventRoleContactLink, models.ConfidenceMedium),
	}, pol)

	m := agg.Lookup("12007")
	assert.Equal(t, 1, m.Count)
	assert.False(t, m.EventLinkedHigh)
}

func TestAggregate_OrderIndependence(t *testing.T) {
	pol := policy.Default()

	rows := []models.ActivityEvidence{
		ev("12007", models.EvidenceEventRoleContactLink, models.ConfidenceHigh),
		ev("12007", models.EvidenceGalleryCreditText, models.ConfidenceLow),
		ev("31504", models.EvidenceEventRoleLink, models.ConfidenceHigh),
		ev("31504", models.EvidenceGalleryUploaderText, models.ConfidenceMedium),
		ev("", models.EvidenceGalleryAuthorText, models.ConfidenceLow),
	}

	want := Aggregate(rows, pol)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]models.ActivityEvidence, len(rows))
		copy(shuffled, rows)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got := Aggregate(shuffled, pol)
		assert.Equal(t, want.LinkedCount, got.LinkedCount)
		assert.Equal(t, want.UnlinkedCount, got.UnlinkedCount)
		require.Len(t, got.ByLegacyID, len(want.ByLegacyID))
		for id, wantGroup := range want.ByLegacyID {
			gotGroup := got.Lookup(id)
			assert.Equal(t, wantGroup.Count, gotGroup.Count)
			assert.Equal(t, wantGroup.TypeCounts, gotGroup.TypeCounts)
			assert.Equal(t, wantGroup.EventLinkedHigh, gotGroup.EventLinkedHigh)
			assert.Equal(t, wantGroup.Summary(), gotGroup.Summary())
		}
	}
}

func TestLookup_NoEvidence(t *testing.T) {
	agg := Aggregate(nil, policy.Default())

	m := agg.Lookup("99999")
	require.NotNil(t, m)
	assert.Equal(t, 0, m.Count)
	assert.False(t, m.EventLinkedHigh)
	assert.Equal(t, "", m.Summary())
}

func TestAggregate_CustomEventLinkedPolicy(t *testing.T) {
	pol := policy.Default()
	pol.EventLinkedTypes = append(pol.EventLinkedTypes, models.EvidenceEventRoleLink)

	agg := Aggregate([]models.ActivityEvidence{
		ev("31504", models.EvidenceEventRoleLink, models.ConfidenceHigh),
	}, pol)

	assert.True(t, agg.Lookup("31504").EventLinkedHigh)
}
