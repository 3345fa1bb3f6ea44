package models

// DuplicateReasonSameName is the only grouping reason the detector emits in
// the current policy.
const DuplicateReasonSameName = "same_normalized_name_display"

// RecommendedActionReview is the only action a duplicate group may carry.
// The detector never merges; a group is a review request, nothing more.
const RecommendedActionReview = "review"

// DuplicateCandidateGroup is a review-only grouping of two or more canonical
// members that share a conservatively normalized display name. Recomputed
// fresh each run; never a mutation of the canonical table. All list fields
// are sorted by member_id so repeated runs are byte-identical.
type DuplicateCandidateGroup struct {
	DuplicateKey      string   `json:"duplicate_key" db:"duplicate_key"`
	MemberIDs         []string `json:"member_ids"`
	LegacyMemberIDs   []string `json:"legacy_member_ids"`
	LegacyUsernames   []string `json:"legacy_usernames"`
	Reason            string   `json:"reason" db:"reason"`
	RecommendedAction string   `json:"recommended_action" db:"recommended_action"`
}

// Size returns the number of members in the group.
func (g *DuplicateCandidateGroup) Size() int {
	return len(g.MemberIDs)
}

// DuplicateGroupListResponse is the review API response for listing
// duplicate candidate groups.
type DuplicateGroupListResponse struct {
	Items      []DuplicateCandidateGroup `json:"items"`
	TotalCount int                       `json:"total_count"`
}
