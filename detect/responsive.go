package detect

import (
	"context"
	"fmt"

	"github.com/BaSui01/webqa/ledger"
	"github.com/BaSui01/webqa/types"
)

// runResponsive re-renders the page in a separate mobile-viewport instance
// and applies the overflow and tiny-text checks there.
func runResponsive(ctx context.Context, env *Env, led *ledger.Ledger) {
	if env.MobileSnapshot == nil {
		return
	}
	snap, err := env.MobileSnapshot(ctx)
	if err != nil {
		if env.Logger != nil {
			env.Logger.Warn("mobile snapshot failed; skipping responsive scan")
		}
		return
	}

	var issues []string
	if snap.HorizontalOverflowPx > 5 {
		issues = append(issues, fmt.Sprintf("mobile viewport overflows horizontally by %dpx", snap.HorizontalOverflowPx))
	}
	for _, el := range snap.OverflowingElements {
		issues = append(issues, "element extends past mobile viewport: "+el)
	}
	if snap.TinyTextCount > 0 {
		issues = append(issues, fmt.Sprintf("%d interactive element(s) below 10px font on mobile", snap.TinyTextCount))
	}
	if snap.TinyTouchCount > env.Policy.TinyTouchMax {
		issues = append(issues, fmt.Sprintf("%d touch target(s) below %dpx on mobile",
			snap.TinyTouchCount, env.Policy.TouchTargetPx))
	}

	if len(issues) == 0 {
		return
	}
	led.Add(ctx, ledger.Commit{
		Title:       fmt.Sprintf("%d responsive issue(s) at mobile viewport", len(issues)),
		Severity:    types.SeverityMedium,
		Category:    types.CategoryLayout,
		Description: "Same geometry checks re-run in a 375x812 mobile-viewport page instance.",
		Steps:       []string{"Open " + env.PageURL + " at 375x812", "Measure overflow and text sizes"},
		Details:     truncate(issues, env.Policy.MaxDetails),
	})
}
