package types

import "fmt"

// Severity classifies how damaging a confirmed defect is.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// SeverityOrder is the fixed display order used by the report compiler.
var SeverityOrder = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// Rank returns the sort rank of a severity, higher is worse.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// ParseSeverity coerces untrusted input into a known severity.
// Unknown values fall back to Medium.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return Severity(s)
	}
	return SeverityMedium
}

// Category classifies the area of the page a defect belongs to.
type Category string

const (
	CategoryNavigation    Category = "Navigation"
	CategoryConsole       Category = "Console"
	CategoryNetwork       Category = "Network"
	CategoryAccessibility Category = "Accessibility"
	CategorySEO           Category = "SEO"
	CategorySecurity      Category = "Security"
	CategoryPerformance   Category = "Performance"
	CategoryLayout        Category = "Layout"
	CategoryFunctional    Category = "Functional"
	CategoryContent       Category = "Content"
	CategoryUX            Category = "UX"
)

var knownCategories = map[Category]bool{
	CategoryNavigation: true, CategoryConsole: true, CategoryNetwork: true,
	CategoryAccessibility: true, CategorySEO: true, CategorySecurity: true,
	CategoryPerformance: true, CategoryLayout: true, CategoryFunctional: true,
	CategoryContent: true, CategoryUX: true,
}

// ParseCategory coerces untrusted input into a known category.
// Unknown values fall back to Functional.
func ParseCategory(s string) Category {
	if knownCategories[Category(s)] {
		return Category(s)
	}
	return CategoryFunctional
}

// BugEntry is one confirmed defect with reproducible evidence.
// IDs are assigned by the ledger as BUG-001, BUG-002, ... and never reused.
type BugEntry struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Severity    Severity `json:"severity"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
	Evidence    []string `json:"evidence"`
	Details     []string `json:"details,omitempty"`
}

// BugID formats the sequential ledger counter as a bug identifier.
func BugID(seq int) string {
	return fmt.Sprintf("BUG-%03d", seq)
}

// FailedRequest is one network request that did not complete successfully.
type FailedRequest struct {
	URL          string `json:"url"`
	Method       string `json:"method"`
	ResourceType string `json:"resource_type"`
	Status       int    `json:"status,omitempty"`
	Failure      string `json:"failure,omitempty"`
}
