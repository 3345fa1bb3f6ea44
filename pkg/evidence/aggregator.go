// Package evidence aggregates activity-evidence rows per legacy member id.
// Aggregation is a pure fold over the input table: the same set of rows
// yields the same aggregates regardless of row order.
package evidence

import (
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/policy"
)

// Aggregation is the result of partitioning one evidence table.
type Aggregation struct {
	// ByLegacyID maps each non-blank legacy member id to its aggregate.
	ByLegacyID map[string]*models.EvidenceAggregate

	// LinkedCount is the number of rows carrying a legacy member id.
	LinkedCount int

	// UnlinkedCount is the number of rows with a blank legacy member id.
	// Such rows never contribute to any member's classification but are
	// counted for the audit trail.
	UnlinkedCount int
}

// Aggregate partitions evidence rows by legacy member id and summarizes each
// group: total count, evidence-type frequency, and whether any row is
// classification-eligible (high confidence and an event-linked type under
// the given policy). Rows of every type count toward Count and TypeCounts;
// only the event-linked predicate is narrow.
func Aggregate(rows []models.ActivityEvidence, pol policy.Policy) Aggregation {
	agg := Aggregation{
		ByLegacyID: make(map[string]*models.EvidenceAggregate),
	}

	for _, row := range rows {
		if row.LegacyMemberID == "" {
			agg.UnlinkedCount++
			continue
		}
		agg.LinkedCount++

		group, ok := agg.ByLegacyID[row.LegacyMemberID]
		if !ok {
			group = &models.EvidenceAggregate{
				LegacyMemberID: row.LegacyMemberID,
				TypeCounts:     make(map[models.EvidenceType]int),
			}
			agg.ByLegacyID[row.LegacyMemberID] = group
		}

		group.Count++
		group.TypeCounts[row.EvidenceType]++

		if row.Confidence == models.ConfidenceHigh && pol.IsEventLinked(row.EvidenceType) {
			group.EventLinkedHigh = true
		}
	}

	return agg
}

// Lookup returns the aggregate for a legacy member id, or an empty aggregate
// when the member has no linked evidence. Absence of evidence is a valid
// input, not an error.
func (a Aggregation) Lookup(legacyMemberID string) *models.EvidenceAggregate {
	if group, ok := a.ByLegacyID[legacyMemberID]; ok {
		return group
	}
	return &models.EvidenceAggregate{LegacyMemberID: legacyMemberID}
}
