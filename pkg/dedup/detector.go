// Package dedup flags possible duplicate identities for human review. It is
// deliberately conservative: exact match on a lowercased,
// whitespace-collapsed display name, nothing fuzzy, nothing phonetic — and
// it never merges. Its only output is the review table; the canonical table
// is read, never altered.
package dedup

import (
	"sort"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
	"github.com/Ramsey-B/clover/pkg/policy"
)

// Detect groups canonical members by normalized display name and returns
// one review group per key shared by two or more members. The key is built
// by the policy's normalizer chain, resolved by name against the
// normalizers registry. Members with a blank display name are excluded
// entirely; a blank key never counts as a match. Output ordering is fixed:
// groups by descending size then key, members within a group by member_id.
func Detect(logger ectologger.Logger, pol policy.Policy, members []models.CanonicalMember) []models.DuplicateCandidateGroup {
	byKey := make(map[string][]models.CanonicalMember)
	for _, m := range members {
		key := normalizers.ApplyChain(m.NameDisplay, pol.DuplicateKeyNormalizers...)
		if key == "" {
			continue
		}
		byKey[key] = append(byKey[key], m)
	}

	groups := make([]models.DuplicateCandidateGroup, 0)
	for key, grouped := range byKey {
		if len(grouped) < 2 {
			continue
		}

		sort.Slice(grouped, func(i, j int) bool {
			return grouped[i].MemberID < grouped[j].MemberID
		})

		group := models.DuplicateCandidateGroup{
			DuplicateKey:      key,
			MemberIDs:         make([]string, 0, len(grouped)),
			LegacyMemberIDs:   make([]string, 0, len(grouped)),
			LegacyUsernames:   make([]string, 0, len(grouped)),
			Reason:            models.DuplicateReasonSameName,
			RecommendedAction: models.RecommendedActionReview,
		}
		for _, m := range grouped {
			group.MemberIDs = append(group.MemberIDs, m.MemberID)
			group.LegacyMemberIDs = append(group.LegacyMemberIDs, m.LegacyMemberID)
			if m.LegacyUsername != "" {
				group.LegacyUsernames = append(group.LegacyUsernames, m.LegacyUsername)
			}
		}
		groups = append(groups, group)
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Size() != groups[j].Size() {
			return groups[i].Size() > groups[j].Size()
		}
		return groups[i].DuplicateKey < groups[j].DuplicateKey
	})

	if logger != nil && len(groups) > 0 {
		logger.WithFields(map[string]any{
			"group_count": len(groups),
		}).Info("Flagged duplicate candidates for review")
	}

	return groups
}
