package detect

import (
	"context"
	"fmt"

	"github.com/BaSui01/webqa/browser"
	"github.com/BaSui01/webqa/ledger"
	"github.com/BaSui01/webqa/types"
)

// AccessibilityIssues scans the snapshot for screen-reader and keyboard
// obstacles: missing alt text, unlabeled controls, heading skips, sub-10px
// text, and positive tab indexes.
func AccessibilityIssues(snap *browser.Snapshot) []string {
	var issues []string
	if snap.ImagesNoAlt > 0 {
		issues = append(issues, fmt.Sprintf("%d image(s) without alt attribute", snap.ImagesNoAlt))
	}
	if snap.UnlabeledButtons > 0 {
		issues = append(issues, fmt.Sprintf("%d button(s) without accessible label", snap.UnlabeledButtons))
	}
	if snap.UnlabeledLinks > 0 {
		issues = append(issues, fmt.Sprintf("%d link(s) without accessible text", snap.UnlabeledLinks))
	}
	if snap.UnlabeledInputs > 0 {
		issues = append(issues, fmt.Sprintf("%d form control(s) without label, aria-label, or placeholder", snap.UnlabeledInputs))
	}
	for _, skip := range snap.HeadingSkips {
		issues = append(issues, "heading level skip: "+skip)
	}
	if snap.TinyTextCount > 0 {
		issues = append(issues, fmt.Sprintf("%d interactive element(s) with font smaller than 10px", snap.TinyTextCount))
	}
	if snap.PositiveTabIndex > 0 {
		issues = append(issues, fmt.Sprintf("%d element(s) with positive tabindex overriding natural focus order", snap.PositiveTabIndex))
	}
	return issues
}

func runAccessibility(ctx context.Context, env *Env, led *ledger.Ledger) {
	issues := AccessibilityIssues(env.Snap)
	if len(issues) == 0 {
		return
	}
	led.Add(ctx, ledger.Commit{
		Title:       fmt.Sprintf("%d accessibility issue(s) found", len(issues)),
		Severity:    escalate(len(issues), env.Policy.AccessibilityHigh),
		Category:    types.CategoryAccessibility,
		Description: "Heuristic accessibility scan of the settled page.",
		Steps:       []string{"Open " + env.PageURL, "Run accessibility scan over the rendered DOM"},
		Details:     truncate(issues, env.Policy.MaxDetails),
	})
}
