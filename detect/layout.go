package detect

import (
	"context"
	"fmt"

	"github.com/BaSui01/webqa/browser"
	"github.com/BaSui01/webqa/config"
	"github.com/BaSui01/webqa/ledger"
	"github.com/BaSui01/webqa/types"
)

// LayoutIssues reports visual breakage: horizontal overflow, elements
// escaping the viewport, excessive text truncation, occluded interactive
// elements, and empty-but-sized containers.
func LayoutIssues(snap *browser.Snapshot, policy config.Policy) []string {
	var issues []string
	if snap.HorizontalOverflowPx > 5 {
		issues = append(issues, fmt.Sprintf("page overflows viewport horizontally by %dpx", snap.HorizontalOverflowPx))
	}
	for _, el := range snap.OverflowingElements {
		issues = append(issues, "element extends past viewport: "+el)
	}
	if snap.TruncatedCount > policy.TruncatedTextMax {
		issues = append(issues, fmt.Sprintf("%d element(s) with truncated (ellipsized) text", snap.TruncatedCount))
	}
	for _, el := range snap.OccludedElements {
		issues = append(issues, "interactive element occluded: "+el)
	}
	for _, el := range snap.EmptyContainers {
		issues = append(issues, "sized container with no content: "+el)
	}
	return issues
}

func runLayout(ctx context.Context, env *Env, led *ledger.Ledger) {
	issues := LayoutIssues(env.Snap, env.Policy)
	if len(issues) == 0 {
		return
	}
	led.Add(ctx, ledger.Commit{
		Title:       fmt.Sprintf("%d layout issue(s) found", len(issues)),
		Severity:    types.SeverityMedium,
		Category:    types.CategoryLayout,
		Description: "Geometry scan of the rendered page at the desktop viewport.",
		Steps:       []string{"Open " + env.PageURL, "Measure element bounding boxes against the viewport"},
		Details:     truncate(issues, env.Policy.MaxDetails),
	})
}
