// Package detect implements the heuristic defect detectors. Each detector is
// a pure analysis function over a page snapshot plus a thin adapter that
// commits at most one aggregate bug (the SEO detector commits per finding) to
// the ledger. Severity escalation thresholds come from config.Policy, never
// from constants buried in the detector bodies.
package detect

import (
	"context"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/BaSui01/webqa/action"
	"github.com/BaSui01/webqa/browser"
	"github.com/BaSui01/webqa/config"
	"github.com/BaSui01/webqa/ledger"
	"github.com/BaSui01/webqa/types"
)

// Env carries everything a detector may consume. Snap is the settled page
// snapshot; Drv and Engine are only touched by the interaction-driven scans.
type Env struct {
	Snap    *browser.Snapshot
	Drv     browser.Driver
	Engine  *action.Engine
	Rec     *browser.Recorder
	HTTP    *http.Client
	Policy  config.Policy
	Logger  *zap.Logger
	PageURL string

	// MobileSnapshot collects a fresh snapshot from a separate mobile-viewport
	// page instance. Nil disables the responsive scan.
	MobileSnapshot func(ctx context.Context) (*browser.Snapshot, error)
}

// Detector is one named scan committing its findings to the ledger.
type Detector struct {
	Name string
	Run  func(ctx context.Context, env *Env, led *ledger.Ledger)
}

// Registry returns the main detector pass in its fixed execution order.
// Bug ids are deterministic for deterministic page content because this
// order never changes within a release.
func Registry() []Detector {
	return []Detector{
		{Name: "seo_meta", Run: runSEO},
		{Name: "accessibility", Run: runAccessibility},
		{Name: "broken_links", Run: runBrokenLinks},
		{Name: "broken_images", Run: runBrokenImages},
		{Name: "security", Run: runSecurity},
		{Name: "performance", Run: runPerformance},
		{Name: "layout", Run: runLayout},
		{Name: "interactive", Run: runInteractive},
		{Name: "content", Run: runContent},
		{Name: "click_through", Run: runClickThrough},
		{Name: "responsive", Run: runResponsive},
	}
}

// Aggregates returns the final detectors that flush the run accumulators.
// They execute after all exploration so they see the whole run's signals.
func Aggregates() []Detector {
	return []Detector{
		{Name: "console", Run: runConsole},
		{Name: "network", Run: runNetwork},
	}
}

// RunAll executes the given detectors in order. A detector that panics is
// logged and skipped; one faulty detector must not abort the run.
func RunAll(ctx context.Context, detectors []Detector, env *Env, led *ledger.Ledger) {
	log := env.Logger
	if log == nil {
		log = zap.NewNop()
	}
	for _, d := range detectors {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error("detector panicked",
						zap.String("detector", d.Name),
						zap.Any("panic", r),
						zap.ByteString("stack", debug.Stack()))
				}
			}()
			log.Debug("running detector", zap.String("detector", d.Name))
			d.Run(ctx, env, led)
		}()
	}
}

// truncate bounds a detail list to the policy cap so reports stay finite.
func truncate(issues []string, max int) []string {
	if max <= 0 || len(issues) <= max {
		return issues
	}
	return issues[:max]
}

// escalate picks High when the issue count exceeds the threshold.
func escalate(count, threshold int) types.Severity {
	if count > threshold {
		return types.SeverityHigh
	}
	return types.SeverityMedium
}
