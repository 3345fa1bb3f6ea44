package canonicalizer

import (
	"context"
	"math/rand"
	"sort"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/policy"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(getTestLogger(), policy.Default())
	require.NoError(t, err)
	return engine
}

func rawRow(legacyID string) models.RawMemberExtraction {
	return models.RawMemberExtraction{
		LegacyMemberID:  legacyID,
		SourcePath:      "members/profile/" + legacyID + "/index.html",
		ParseConfidence: models.ConfidenceHigh,
	}
}

func contactEvidence(legacyID string) models.ActivityEvidence {
	return models.ActivityEvidence{
		EvidenceID:     "ev-contact-" + legacyID,
		LegacyMemberID: legacyID,
		EvidenceType:   models.EvidenceEventRoleContactLink,
		Confidence:     models.ConfidenceHigh,
		PrivacyFlag:    models.PrivacyPublic,
		SourceSystem:   "events_show",
		SourcePath:     "events/show/1/index.html",
		SourceURL:      "http://www.footbag.org/events/show/1",
	}
}

func TestRun_NoEvidenceNoLogin(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Run(context.Background(), []models.RawMemberExtraction{rawRow("12007")}, nil)
	require.NoError(t, err)
	require.Len(t, result.Members, 1)

	m := result.Members[0]
	assert.False(t, m.Active)
	assert.Equal(t, models.ConfidenceLow, m.ActiveConfidence)
	assert.Equal(t, 0, m.EvidenceCount)
	assert.Equal(t, "", m.EvidenceSummary)
	assert.Equal(t, "12007", m.LegacyMemberID)
	assert.Equal(t, "http://www.footbag.org/members/profile/12007", m.ProfileURL)
}

func TestRun_EventLinkedEvidence(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Run(
		context.Background(),
		[]models.RawMemberExtraction{rawRow("12007")},
		[]models.ActivityEvidence{contactEvidence("12007")},
	)
	require.NoError(t, err)
	require.Len(t, result.Members, 1)

	m := result.Members[0]
	assert.True(t, m.Active)
	assert.Equal(t, models.ConfidenceHigh, m.ActiveConfidence)
	assert.Equal(t, 1, m.EvidenceCount)
	assert.Equal(t, "event_role_contact_link:1", m.EvidenceSummary)
}

func TestRun_LoginPresenceOnly(t *testing.T) {
	engine := newTestEngine(t)

	raw := rawRow("12007")
	raw.RestrictedLastLoginRaw = "Sun Oct 30 08:52:07 2011"

	result, err := engine.Run(context.Background(), []models.RawMemberExtraction{raw}, nil)
	require.NoError(t, err)
	require.Len(t, result.Members, 1)

	m := result.Members[0]
	assert.True(t, m.Active)
	assert.Equal(t, models.ConfidenceMedium, m.ActiveConfidence)
	assert.Equal(t, 0, m.EvidenceCount)
	// The restricted value is carried, untouched, in the restricted group.
	assert.Equal(t, "Sun Oct 30 08:52:07 2011", m.RestrictedLastLoginRaw)
}

func TestRun_DuplicateNameGroup(t *testing.T) {
	engine := newTestEngine(t)

	a := rawRow("1001")
	a.NameDisplay = "Josh  Penney"
	b := rawRow("1002")
	b.NameDisplay = "josh penney"

	result, err := engine.Run(context.Background(), []models.RawMemberExtraction{a, b}, nil)
	require.NoError(t, err)
	require.Len(t, result.Duplicates, 1)

	g := result.Duplicates[0]
	assert.Equal(t, "josh penney", g.DuplicateKey)
	assert.Len(t, g.MemberIDs, 2)
	assert.ElementsMatch(t, []string{"1001", "1002"}, g.LegacyMemberIDs)
	assert.Equal(t, models.RecommendedActionReview, g.RecommendedAction)
	// Detection never changes the canonical table.
	assert.Len(t, result.Members, 2)
}

func TestRun_NonEventEvidenceNeverFlipsActive(t *testing.T) {
	engine := newTestEngine(t)

	gallery := models.ActivityEvidence{
		EvidenceID:     "ev-gallery-1",
		LegacyMemberID: "12007",
		EvidenceType:   models.EvidenceGalleryCreditText,
		Confidence:     models.ConfidenceHigh,
		PrivacyFlag:    models.PrivacyPublic,
		SourceSystem:   "gallery_show",
		SourcePath:     "gallery/show/9/index.html",
		SourceURL:      "http://www.footbag.org/gallery/show/9",
	}

	result, err := engine.Run(
		context.Background(),
		[]models.RawMemberExtraction{rawRow("12007")},
		[]models.ActivityEvidence{gallery},
	)
	require.NoError(t, err)
	require.Len(t, result.Members, 1)

	m := result.Members[0]
	assert.False(t, m.Active)
	assert.Equal(t, models.ConfidenceLow, m.ActiveConfidence)
	// Still fully audited.
	assert.Equal(t, 1, m.EvidenceCount)
	assert.Equal(t, "gallery_credit_text:1", m.EvidenceSummary)
}

func TestRun_DuplicateLegacyIDFailsLoudly(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Run(
		context.Background(),
		[]models.RawMemberExtraction{rawRow("12007"), rawRow("31504"), rawRow("12007")},
		nil,
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateLegacyID)
	assert.Contains(t, err.Error(), "12007")
	assert.Nil(t, result)
}

func TestRun_InvalidIdentifierExcludedNotDropped(t *testing.T) {
	engine := newTestEngine(t)

	bad := rawRow("")
	bad.SourcePath = "members/profile/unknown/index.html"

	result, err := engine.Run(
		context.Background(),
		[]models.RawMemberExtraction{rawRow("12007"), bad},
		nil,
	)
	require.NoError(t, err)

	assert.Len(t, result.Members, 1)
	require.Len(t, result.Exclusions, 1)
	assert.Equal(t, models.ExclusionReasonInvalidIdentifier, result.Exclusions[0].Reason)
	assert.Equal(t, "members/profile/unknown/index.html", result.Exclusions[0].SourcePath)
	assert.Equal(t, 1, result.Stats.ExcludedRowCount)
	assert.Equal(t, 1, result.Coverage.Audit.ExcludedRowCount)
}

func TestRun_WhitespaceCollapsedOnPublicFields(t *testing.T) {
	engine := newTestEngine(t)

	raw := rawRow("12007")
	raw.NameDisplay = "  Josh \t Penney "
	raw.LegacyUsername = "josh penney"
	raw.JoinedRaw = " 01/02/2003 "
	raw.RestrictedPIIEmailRaw = "  kept   verbatim  "

	result, err := engine.Run(context.Background(), []models.RawMemberExtraction{raw}, nil)
	require.NoError(t, err)
	require.Len(t, result.Members, 1)

	m := result.Members[0]
	assert.Equal(t, "Josh Penney", m.NameDisplay)
	assert.Equal(t, "josh penney", m.LegacyUsername)
	assert.Equal(t, "01/02/2003", m.JoinedRaw)
	// Restricted fields are copied verbatim, never normalized.
	assert.Equal(t, "  kept   verbatim  ", m.RestrictedPIIEmailRaw)
}

func TestRun_OrphanAndUnlinkedEvidenceCounted(t *testing.T) {
	engine := newTestEngine(t)

	// Three rows for legacy id 99999, which matches no raw member. The
	// counter tallies rows, not distinct orphan ids.
	orphan1 := contactEvidence("99999")
	orphan2 := contactEvidence("99999")
	orphan2.EvidenceID = "ev-contact-99999-b"
	orphan2.SourcePath = "events/show/2/index.html"
	orphan3 := contactEvidence("99999")
	orphan3.EvidenceID = "ev-contact-99999-c"
	orphan3.SourcePath = "events/show/3/index.html"
	unlinked := models.ActivityEvidence{
		EvidenceID:   "ev-unlinked-1",
		EvidenceType: models.EvidenceGalleryCreditText,
		Confidence:   models.ConfidenceLow,
		PrivacyFlag:  models.PrivacyPublic,
		SourceSystem: "gallery_show",
		SourcePath:   "gallery/show/9/index.html",
		SourceURL:    "http://www.footbag.org/gallery/show/9",
	}

	result, err := engine.Run(
		context.Background(),
		[]models.RawMemberExtraction{rawRow("12007")},
		[]models.ActivityEvidence{orphan1, orphan2, orphan3, unlinked},
	)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Stats.OrphanEvidenceCount)
	assert.Equal(t, 1, result.Stats.UnlinkedEvidenceCount)
	assert.Equal(t, 3, result.Stats.LinkedEvidenceCount)
	assert.Equal(t, 3, result.Coverage.Audit.OrphanEvidenceCount)
	// Orphan evidence never attaches to a member...
	assert.Equal(t, 0, result.Members[0].EvidenceCount)
	// ...but stays in the audit-trail evidence output.
	assert.Len(t, result.Evidence, 4)
}

func TestRun_EvidencePassthroughJoinsMemberID(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Run(
		context.Background(),
		[]models.RawMemberExtraction{rawRow("12007")},
		[]models.ActivityEvidence{contactEvidence("12007")},
	)
	require.NoError(t, err)

	require.Len(t, result.Evidence, 1)
	assert.Equal(t, result.Members[0].MemberID, result.Evidence[0].MemberID)
	assert.Equal(t, "12007", result.Evidence[0].LegacyMemberID)
}

func TestRun_DeterministicUnderShuffle(t *testing.T) {
	engine := newTestEngine(t)

	raw := []models.RawMemberExtraction{}
	evidenceRows := []models.ActivityEvidence{}
	for _, id := range []string{"5", "12007", "31504", "7", "100", "99", "abc"} {
		r := rawRow(id)
		r.NameDisplay = "Member " + id
		raw = append(raw, r)
		if id != "7" {
			evidenceRows = append(evidenceRows, contactEvidence(id))
		}
	}

	baseline, err := engine.Run(context.Background(), raw, evidenceRows)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffledRaw := make([]models.RawMemberExtraction, len(raw))
		copy(shuffledRaw, raw)
		rng.Shuffle(len(shuffledRaw), func(a, b int) {
			shuffledRaw[a], shuffledRaw[b] = shuffledRaw[b], shuffledRaw[a]
		})

		shuffledEv := make([]models.ActivityEvidence, len(evidenceRows))
		copy(shuffledEv, evidenceRows)
		rng.Shuffle(len(shuffledEv), func(a, b int) {
			shuffledEv[a], shuffledEv[b] = shuffledEv[b], shuffledEv[a]
		})

		run, err := engine.Run(context.Background(), shuffledRaw, shuffledEv)
		require.NoError(t, err)

		// Output tables are not just set-equal but identically ordered.
		assert.Equal(t, baseline.Members, run.Members)
		assert.Equal(t, baseline.Evidence, run.Evidence)
		assert.Equal(t, baseline.Duplicates, run.Duplicates)
		assert.Equal(t, baseline.Coverage, run.Coverage)
		assert.Equal(t, baseline.Stats, run.Stats)
	}
}

func TestRun_NumericAwareOrdering(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Run(context.Background(), []models.RawMemberExtraction{
		rawRow("100"), rawRow("99"), rawRow("abc"), rawRow("5"),
	}, nil)
	require.NoError(t, err)

	ids := make([]string, 0, len(result.Members))
	for _, m := range result.Members {
		ids = append(ids, m.LegacyMemberID)
	}
	assert.Equal(t, []string{"5", "99", "100", "abc"}, ids)
	assert.True(t, sort.SliceIsSorted(result.Members, func(i, j int) bool {
		return legacyIDLess(result.Members[i].LegacyMemberID, result.Members[j].LegacyMemberID)
	}))
}

func TestRun_DoesNotMutateInputs(t *testing.T) {
	engine := newTestEngine(t)

	raw := []models.RawMemberExtraction{rawRow("31504"), rawRow("12007")}
	evidenceRows := []models.ActivityEvidence{contactEvidence("12007")}

	rawSnapshot := make([]models.RawMemberExtraction, len(raw))
	copy(rawSnapshot, raw)
	evSnapshot := make([]models.ActivityEvidence, len(evidenceRows))
	copy(evSnapshot, evidenceRows)

	_, err := engine.Run(context.Background(), raw, evidenceRows)
	require.NoError(t, err)

	assert.Equal(t, rawSnapshot, raw)
	assert.Equal(t, evSnapshot, evidenceRows)
}

func TestNewEngine_InvalidPolicy(t *testing.T) {
	pol := policy.Default()
	pol.EventLinkedTypes = nil

	_, err := NewEngine(getTestLogger(), pol)
	require.Error(t, err)
}
