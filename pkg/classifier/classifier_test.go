package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		signals  Signals
		expected Decision
	}{
		{
			name:     "event-linked evidence alone",
			signals:  Signals{EventLinkedHigh: true},
			expected: Decision{Active: true, Confidence: models.ConfidenceHigh},
		},
		{
			name:     "event-linked evidence wins over login presence",
			signals:  Signals{EventLinkedHigh: true, LoginPresence: true},
			expected: Decision{Active: true, Confidence: models.ConfidenceHigh},
		},
		{
			name:     "login presence alone",
			signals:  Signals{LoginPresence: true},
			expected: Decision{Active: true, Confidence: models.ConfidenceMedium},
		},
		{
			name:     "no signals",
			signals:  Signals{},
			expected: Decision{Active: false, Confidence: models.ConfidenceLow},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.signals))
		})
	}
}

func TestClassify_Totality(t *testing.T) {
	// Every signal combination yields a valid confidence, and active is
	// true exactly when confidence is high or medium.
	for _, eventLinked := range []bool{false, true} {
		for _, login := range []bool{false, true} {
			d := Classify(Signals{EventLinkedHigh: eventLinked, LoginPresence: login})
			assert.True(t, d.Confidence.Valid())
			assert.Equal(t, d.Confidence == models.ConfidenceHigh || d.Confidence == models.ConfidenceMedium, d.Active)
		}
	}
}
