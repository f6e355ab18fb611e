package detect

import (
	"context"
	"fmt"

	"github.com/BaSui01/webqa/config"
	"github.com/BaSui01/webqa/ledger"
	"github.com/BaSui01/webqa/types"
)

// ConsoleFindings turns the run's console/exception accumulators into
// committable findings. Uncaught exceptions are always High regardless of
// count; warnings only matter past the policy threshold.
type ConsoleFindings struct {
	Errors     []string
	Exceptions []string
	Warnings   []string
}

func runConsole(ctx context.Context, env *Env, led *ledger.Ledger) {
	if env.Rec == nil {
		return
	}
	commitConsole(ctx, led, ConsoleFindings{
		Errors:     env.Rec.ConsoleErrors(),
		Exceptions: env.Rec.Exceptions(),
		Warnings:   env.Rec.ConsoleWarnings(),
	}, env.Policy, env.PageURL)
}

func commitConsole(ctx context.Context, led *ledger.Ledger, f ConsoleFindings, policy config.Policy, pageURL string) {
	if len(f.Exceptions) > 0 {
		led.Add(ctx, ledger.Commit{
			Title:       fmt.Sprintf("%d uncaught exception(s)", len(f.Exceptions)),
			Severity:    types.SeverityHigh,
			Category:    types.CategoryConsole,
			Description: "JavaScript exceptions escaped to the page during the run.",
			Steps:       []string{"Open " + pageURL, "Observe the console during the full scan"},
			Details:     truncate(f.Exceptions, policy.MaxDetails),
		})
	}
	if len(f.Errors) > 0 {
		led.Add(ctx, ledger.Commit{
			Title:       fmt.Sprintf("%d console error(s)", len(f.Errors)),
			Severity:    types.SeverityHigh,
			Category:    types.CategoryConsole,
			Description: "console.error output recorded during the run.",
			Steps:       []string{"Open " + pageURL, "Observe the console during the full scan"},
			Details:     truncate(f.Errors, policy.MaxDetails),
		})
	}
	if len(f.Warnings) > policy.ConsoleWarnLow {
		led.Add(ctx, ledger.Commit{
			Title:       fmt.Sprintf("%d console warning(s)", len(f.Warnings)),
			Severity:    types.SeverityLow,
			Category:    types.CategoryConsole,
			Description: "An unusually noisy warning stream often hides real regressions.",
			Steps:       []string{"Open " + pageURL, "Observe the console during the full scan"},
			Details:     truncate(f.Warnings, policy.MaxDetails),
		})
	}
}

// SplitFailedRequests partitions failures into application traffic (fetch,
// xhr, document, or any 5xx status) and static assets.
func SplitFailedRequests(failed []types.FailedRequest) (app, static []types.FailedRequest) {
	for _, fr := range failed {
		switch {
		case fr.Status >= 500, fr.ResourceType == "fetch", fr.ResourceType == "xhr", fr.ResourceType == "document":
			app = append(app, fr)
		default:
			static = append(static, fr)
		}
	}
	return app, static
}

func formatFailedRequests(reqs []types.FailedRequest) []string {
	out := make([]string, 0, len(reqs))
	for _, fr := range reqs {
		if fr.Status != 0 {
			out = append(out, fmt.Sprintf("%s %s -> %d", fr.Method, fr.URL, fr.Status))
		} else {
			out = append(out, fmt.Sprintf("%s %s -> %s", fr.Method, fr.URL, fr.Failure))
		}
	}
	return out
}

func runNetwork(ctx context.Context, env *Env, led *ledger.Ledger) {
	if env.Rec == nil {
		return
	}
	app, static := SplitFailedRequests(env.Rec.FailedRequests())

	if len(app) > 0 {
		led.Add(ctx, ledger.Commit{
			Title:       fmt.Sprintf("%d failed application request(s)", len(app)),
			Severity:    types.SeverityHigh,
			Category:    types.CategoryNetwork,
			Description: "API or document requests that returned server errors or never completed.",
			Steps:       []string{"Open " + env.PageURL, "Record network traffic during the full scan"},
			Details:     truncate(formatFailedRequests(app), env.Policy.MaxDetails),
		})
	}
	if len(static) > 0 {
		led.Add(ctx, ledger.Commit{
			Title:       fmt.Sprintf("%d failed static asset request(s)", len(static)),
			Severity:    types.SeverityMedium,
			Category:    types.CategoryNetwork,
			Description: "Stylesheets, scripts, images, or fonts that failed to load.",
			Steps:       []string{"Open " + env.PageURL, "Record network traffic during the full scan"},
			Details:     truncate(formatFailedRequests(static), env.Policy.MaxDetails),
		})
	}
}
