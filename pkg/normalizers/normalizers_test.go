package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollapseWhitespace(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain", input: "Josh Penney", expected: "Josh Penney"},
		{name: "interior runs", input: "Josh   Penney", expected: "Josh Penney"},
		{name: "tabs and newlines", input: "Josh\t\nPenney", expected: "Josh Penney"},
		{name: "surrounding whitespace", input: "  Josh Penney  ", expected: "Josh Penney"},
		{name: "nbsp", input: "Josh Penney", expected: "Josh Penney"},
		{name: "empty", input: "", expected: ""},
		{name: "only whitespace", input: " \t ", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CollapseWhitespace(tt.input))
		})
	}
}

func TestNormalizeDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "lowercases", input: "Josh Penney", expected: "josh penney"},
		{name: "collapses runs", input: "JOSH   PENNEY", expected: "josh penney"},
		{name: "diacritics preserved", input: "José  Peña", expected: "josé peña"},
		{name: "punctuation preserved", input: "O'Brien, Jr.", expected: "o'brien, jr."},
		{name: "blank stays blank", input: "   ", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeDisplayName(tt.input))
		})
	}
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, "josh penney", Apply(" Josh  Penney ", "ndisplayname"))
	assert.Equal(t, "12007", Apply("id-12007", "digits_only"))

	// Unknown normalizers pass values through untouched.
	assert.Equal(t, "As-Is", Apply("As-Is", "soundex"))

	_, ok := Get("collapse_whitespace")
	assert.True(t, ok)

	assert.Equal(t, "a b", ApplyChain(" A  B ", "trim", "lowercase", "collapse_whitespace"))
}
