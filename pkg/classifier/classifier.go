// Package classifier applies the activity decision rule. Classification is
// total: it never errors, and absence of every signal is a valid input that
// yields INACTIVE.
package classifier

import (
	"github.com/Ramsey-B/clover/pkg/models"
)

// Signals are the only inputs the decision rule may consult. Restricted
// content never appears here: LoginPresence is presence-only, computed by
// the caller from whether restricted_last_login_raw is non-blank.
type Signals struct {
	// EventLinkedHigh is true when the member has at least one
	// high-confidence evidence row of an event-linked type under policy.
	EventLinkedHigh bool

	// LoginPresence is true when the raw row carried any last-login value.
	LoginPresence bool
}

// Decision is the classifier output. Active is true iff Confidence is high
// or medium; INACTIVE is reported with low confidence (the tier is not
// applicable to the inactive state and low is reserved for it).
type Decision struct {
	Active     bool
	Confidence models.Confidence
}

// rule is one row of the decision table, evaluated in order; the first match
// wins. Extending the classification policy (for example a future
// weak-evidence ACTIVE/low tier) means inserting a row here, not changing
// the evaluation logic.
type rule struct {
	matches func(Signals) bool
	decide  Decision
}

var rules = []rule{
	{
		matches: func(s Signals) bool { return s.EventLinkedHigh },
		decide:  Decision{Active: true, Confidence: models.ConfidenceHigh},
	},
	{
		matches: func(s Signals) bool { return s.LoginPresence },
		decide:  Decision{Active: true, Confidence: models.ConfidenceMedium},
	},
}

// inactive is the fallthrough when no rule matches.
var inactive = Decision{Active: false, Confidence: models.ConfidenceLow}

// Classify evaluates the decision table over the member's signals. Evidence
// that is not event-linked high-confidence never flips the active flag, no
// matter how much of it exists; it lives only in the audit trail.
func Classify(s Signals) Decision {
	for _, r := range rules {
		if r.matches(s) {
			return r.decide
		}
	}
	return inactive
}
