package detect

import (
	"context"
	"fmt"

	"github.com/BaSui01/webqa/browser"
	"github.com/BaSui01/webqa/config"
	"github.com/BaSui01/webqa/ledger"
	"github.com/BaSui01/webqa/types"
)

// InteractiveIssues reports dead or hostile interactive elements: anchors
// going nowhere, untyped inputs, empty selects, and undersized touch targets.
func InteractiveIssues(snap *browser.Snapshot, policy config.Policy) []string {
	var issues []string
	for _, l := range snap.DeadLinks {
		issues = append(issues, "dead link (href=\"#\" or javascript:void) at "+l)
	}
	if snap.UntypedInputs > 0 {
		issues = append(issues, fmt.Sprintf("%d input(s) without a type attribute", snap.UntypedInputs))
	}
	if snap.EmptySelects > 0 {
		issues = append(issues, fmt.Sprintf("%d select element(s) with no options", snap.EmptySelects))
	}
	if snap.TinyTouchCount > policy.TinyTouchMax {
		issues = append(issues, fmt.Sprintf("%d touch target(s) smaller than %dx%dpx",
			snap.TinyTouchCount, policy.TouchTargetPx, policy.TouchTargetPx))
	}
	return issues
}

func runInteractive(ctx context.Context, env *Env, led *ledger.Ledger) {
	issues := InteractiveIssues(env.Snap, env.Policy)
	if len(issues) == 0 {
		return
	}
	led.Add(ctx, ledger.Commit{
		Title:       fmt.Sprintf("%d interactive element issue(s) found", len(issues)),
		Severity:    escalate(len(issues), env.Policy.InteractiveHigh),
		Category:    types.CategoryUX,
		Description: "Static audit of clickable and form elements.",
		Steps:       []string{"Open " + env.PageURL, "Audit anchors, inputs, selects, and touch target sizes"},
		Details:     truncate(issues, env.Policy.MaxDetails),
	})
}
