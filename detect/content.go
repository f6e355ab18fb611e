package detect

import (
	"context"
	"fmt"

	"github.com/BaSui01/webqa/browser"
	"github.com/BaSui01/webqa/ledger"
	"github.com/BaSui01/webqa/types"
)

// ContentIssues detects a web app rendering in a broken state: error text in
// the visible body, a collapsed main region, persistent spinners, framework
// dev-error overlays, and near-empty pages. The second return value is true
// when the page is effectively unusable (error text or blank screen).
func ContentIssues(snap *browser.Snapshot) ([]string, bool) {
	var issues []string
	broken := false

	for _, m := range snap.ErrorTextMatches {
		issues = append(issues, "error text visible on page: "+m)
		broken = true
	}
	if snap.BodyTextLen < 20 {
		issues = append(issues, fmt.Sprintf("page body is nearly empty (%d visible characters)", snap.BodyTextLen))
		broken = true
	}
	if snap.MainCollapsed {
		issues = append(issues, "main content region is collapsed to under 50px height")
	}
	if snap.SpinnerCount > 0 {
		issues = append(issues, fmt.Sprintf("%d loading indicator(s) still visible after settle", snap.SpinnerCount))
	}
	if snap.DevOverlay != "" {
		issues = append(issues, "development error overlay present: "+snap.DevOverlay)
		broken = true
	}
	return issues, broken
}

func runContent(ctx context.Context, env *Env, led *ledger.Ledger) {
	issues, broken := ContentIssues(env.Snap)
	if len(issues) == 0 {
		return
	}
	severity := types.SeverityMedium
	if broken {
		severity = types.SeverityHigh
	}
	led.Add(ctx, ledger.Commit{
		Title:       fmt.Sprintf("%d content issue(s) found", len(issues)),
		Severity:    severity,
		Category:    types.CategoryContent,
		Description: "Visible body text and app shell inspected for broken-state markers.",
		Steps:       []string{"Open " + env.PageURL, "Wait for settle", "Inspect visible text and app containers"},
		Details:     truncate(issues, env.Policy.MaxDetails),
	})
}
