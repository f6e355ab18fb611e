package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBugID(t *testing.T) {
	assert.Equal(t, "BUG-001", BugID(1))
	assert.Equal(t, "BUG-042", BugID(42))
	assert.Equal(t, "BUG-1000", BugID(1000))
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
	}{
		{"High", SeverityHigh},
		{"Critical", SeverityCritical},
		{"Low", SeverityLow},
		{"", SeverityMedium},
		{"catastrophic", SeverityMedium},
		{"high", SeverityMedium}, // coercion is case-sensitive by contract
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSeverity(tt.in), "input %q", tt.in)
	}
}

func TestParseCategory(t *testing.T) {
	assert.Equal(t, CategorySEO, ParseCategory("SEO"))
	assert.Equal(t, CategoryUX, ParseCategory("UX"))
	assert.Equal(t, CategoryFunctional, ParseCategory("Bugs"))
	assert.Equal(t, CategoryFunctional, ParseCategory(""))
}

func TestSeverityRankOrder(t *testing.T) {
	assert.Greater(t, SeverityCritical.Rank(), SeverityHigh.Rank())
	assert.Greater(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Greater(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Equal(t, 0, Severity("nope").Rank())
}
