package report

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/webqa/types"
)

func sampleInput() Input {
	return Input{
		URL:       "https://example.com/",
		Scope:     "full scan",
		RunID:     "a1b2c3d4",
		StartedAt: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
		Duration:  95 * time.Second,
		Bugs: []types.BugEntry{
			{
				ID: "BUG-001", Title: "Missing page title", Severity: types.SeverityMedium,
				Category: types.CategorySEO, Evidence: []string{"screenshots/BUG-001.png"},
				Steps: []string{"Navigate to https://example.com/", "Inspect document <title>"},
			},
			{
				ID: "BUG-002", Title: "Checkout crashes", Severity: types.SeverityCritical,
				Category: types.CategoryFunctional, Evidence: []string{"screenshots/BUG-002.png"},
				Description: "Clicking checkout raises an uncaught TypeError.",
				Details:     []string{"TypeError: cart is undefined"},
			},
			{
				ID: "BUG-003", Title: "Low contrast footer", Severity: types.SeverityLow,
				Category: types.CategoryAccessibility, Evidence: []string{"screenshots/BUG-003.png"},
			},
		},
		Workflows: []types.WorkflowResult{
			{Name: "form-tester", Passed: true, Steps: []types.WorkflowStep{
				{Action: "fill", Target: "#email", Value: "test@example.com", Expect: "value accepted without JS error"},
			}},
			{Name: "dropdown-tab-tester", Passed: false, Error: `tab "Pricing" did not toggle its active state after click`},
		},
		ConsoleErrors:  []string{"TypeError: cart is undefined"},
		Exceptions:     []string{"Uncaught TypeError at checkout.js:10"},
		FailedRequests: []types.FailedRequest{{URL: "https://example.com/api/cart", Method: "POST", ResourceType: "xhr", Status: 500}},
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	in := sampleInput()
	first := Render(in)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Render(in), "render must be byte-identical across calls")
	}
}

func TestRenderSortsBugsBySeverity(t *testing.T) {
	out := Render(sampleInput())

	critical := indexOf(t, out, "### BUG-002")
	medium := indexOf(t, out, "### BUG-001")
	low := indexOf(t, out, "### BUG-003")
	assert.Less(t, critical, medium)
	assert.Less(t, medium, low)
}

func indexOf(t *testing.T, haystack, needle string) int {
	t.Helper()
	i := strings.Index(haystack, needle)
	require.GreaterOrEqual(t, i, 0, "missing %q", needle)
	return i
}

func TestRenderSections(t *testing.T) {
	out := Render(sampleInput())

	assert.Contains(t, out, "# QA Scan Report: https://example.com/")
	assert.Contains(t, out, "3 bug(s) found.")
	assert.Contains(t, out, "| Critical | 1 |")
	assert.Contains(t, out, "| High | 0 |")
	assert.Contains(t, out, "Workflows: 1 passed, 1 failed.")
	assert.Contains(t, out, "[screenshots/BUG-002.png](screenshots/BUG-002.png)")
	assert.Contains(t, out, "### form-tester — PASS")
	assert.Contains(t, out, "### dropdown-tab-tester — FAIL")
	assert.Contains(t, out, `fill #email = "test@example.com"`)
	assert.Contains(t, out, "### Uncaught exceptions (1)")
	assert.Contains(t, out, "| POST | https://example.com/api/cart | xhr | HTTP 500 |")
}

func TestRenderEvidenceLinksPerEntry(t *testing.T) {
	in := sampleInput()
	in.Bugs = in.Bugs[:1]
	in.Bugs[0].Evidence = []string{"screenshots/BUG-001.png", "screenshots/BUG-001-mobile.png"}

	out := Render(in)
	assert.Contains(t, out, "- Evidence: [screenshots/BUG-001.png](screenshots/BUG-001.png)")
	assert.Contains(t, out, "- Evidence: [screenshots/BUG-001-mobile.png](screenshots/BUG-001-mobile.png)")
	assert.NotContains(t, out, "[[", "slice must never be formatted as one link")
}

func TestRenderTruncatesSignals(t *testing.T) {
	in := Input{URL: "https://example.com/", MaxSignals: 3}
	for i := 0; i < 10; i++ {
		in.ConsoleErrors = append(in.ConsoleErrors, "err")
	}
	out := Render(in)
	assert.Contains(t, out, "### Console errors (10)")
	assert.Contains(t, out, "…and 7 more.")
}

func TestWriteAndPack(t *testing.T) {
	dir := t.TempDir()
	shots := filepath.Join(dir, "screenshots")
	require.NoError(t, os.MkdirAll(shots, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(shots, "BUG-001.png"), []byte("png"), 0o644))

	path, err := Write(dir, sampleInput())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report.md"), path)

	zipPath := filepath.Join(t.TempDir(), "run.zip")
	require.NoError(t, Pack(zipPath, dir))

	r, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer r.Close()

	names := make(map[string]bool)
	for _, f := range r.File {
		names[f.Name] = true
	}
	assert.True(t, names["report.md"])
	assert.True(t, names["screenshots/BUG-001.png"])
}
