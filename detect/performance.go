package detect

import (
	"context"
	"fmt"
	"time"

	"github.com/BaSui01/webqa/browser"
	"github.com/BaSui01/webqa/config"
	"github.com/BaSui01/webqa/ledger"
	"github.com/BaSui01/webqa/types"
)

// PerformanceIssues checks navigation timing and resource weight against the
// policy budgets. The second return value reports whether first contentful
// paint broke its budget, which escalates the whole bug to High.
func PerformanceIssues(snap *browser.Snapshot, policy config.Policy) ([]string, bool) {
	var issues []string
	fcpSlow := false

	if fcp := time.Duration(snap.FCPMs) * time.Millisecond; snap.FCPMs > 0 && fcp > policy.FCPHigh {
		issues = append(issues, fmt.Sprintf("first contentful paint %.1fs exceeds %.0fs budget",
			fcp.Seconds(), policy.FCPHigh.Seconds()))
		fcpSlow = true
	}
	if ready := time.Duration(snap.DOMReadyMs) * time.Millisecond; snap.DOMReadyMs > 0 && ready > policy.DOMReadySlow {
		issues = append(issues, fmt.Sprintf("DOMContentLoaded at %.1fs exceeds %.0fs budget",
			ready.Seconds(), policy.DOMReadySlow.Seconds()))
	}
	if load := time.Duration(snap.LoadMs) * time.Millisecond; snap.LoadMs > 0 && load > policy.FullLoadSlow {
		issues = append(issues, fmt.Sprintf("full load at %.1fs exceeds %.0fs budget",
			load.Seconds(), policy.FullLoadSlow.Seconds()))
	}
	if snap.NodeCount > policy.MaxDOMNodes {
		issues = append(issues, fmt.Sprintf("DOM has %d nodes, budget is %d", snap.NodeCount, policy.MaxDOMNodes))
	}
	for _, r := range snap.HeavyResources {
		issues = append(issues, fmt.Sprintf("resource heavier than %d KB: %s", policy.MaxResourceKB, r))
	}
	return issues, fcpSlow
}

func runPerformance(ctx context.Context, env *Env, led *ledger.Ledger) {
	issues, fcpSlow := PerformanceIssues(env.Snap, env.Policy)
	if len(issues) == 0 {
		return
	}
	severity := types.SeverityMedium
	if fcpSlow {
		severity = types.SeverityHigh
	}
	led.Add(ctx, ledger.Commit{
		Title:       fmt.Sprintf("%d performance issue(s) found", len(issues)),
		Severity:    severity,
		Category:    types.CategoryPerformance,
		Description: "Navigation timing, DOM size, and resource weight checked against budgets.",
		Steps:       []string{"Open " + env.PageURL, "Read Performance API navigation and resource entries"},
		Details:     truncate(issues, env.Policy.MaxDetails),
	})
}
