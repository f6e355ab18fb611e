package detect

import (
	"context"
	"fmt"
	"time"

	"github.com/BaSui01/webqa/action"
	"github.com/BaSui01/webqa/ledger"
	"github.com/BaSui01/webqa/types"
)

// clickTarget is one discovered nav/button candidate.
type clickTarget struct {
	Selector string `json:"selector"`
	Text     string `json:"text"`
}

// clickTargetsJS discovers up to %d visible navigation and button targets.
const clickTargetsJS = `(() => {
	const cap = %d;
	const sel = (el) => {
		if (el.id) return "#" + el.id;
		const parts = [];
		let node = el;
		while (node && node.nodeType === 1 && parts.length < 5) {
			let part = node.tagName.toLowerCase();
			const parent = node.parentElement;
			if (parent) {
				const same = Array.from(parent.children).filter(c => c.tagName === node.tagName);
				if (same.length > 1) part += ":nth-of-type(" + (same.indexOf(node) + 1) + ")";
			}
			parts.unshift(part);
			node = node.parentElement;
		}
		return parts.join(" > ");
	};
	const out = [];
	for (const el of document.querySelectorAll('nav a[href], header a[href], button, [role="button"]')) {
		const r = el.getBoundingClientRect();
		if (r.width === 0 || r.height === 0) continue;
		out.push({selector: sel(el), text: (el.innerText || "").trim().slice(0, 40)});
		if (out.length === cap) break;
	}
	return out;
})()`

// runClickThrough clicks up to ClickTargets discovered nav/button elements,
// watching for blocked clicks and JS errors, restoring the URL whenever a
// click navigated away.
func runClickThrough(ctx context.Context, env *Env, led *ledger.Ledger) {
	if env.Drv == nil || env.Engine == nil {
		return
	}

	var targets []clickTarget
	if err := env.Drv.Evaluate(ctx, fmt.Sprintf(clickTargetsJS, env.Policy.ClickTargets), &targets); err != nil {
		return
	}

	var issues []string
	for _, t := range targets {
		before, _ := env.Drv.Location(ctx)

		out := env.Engine.Perform(ctx, action.Request{Kind: action.Click, Selector: t.Selector})
		env.Engine.Stabilize(ctx, 300*time.Millisecond)

		label := t.Text
		if label == "" {
			label = t.Selector
		}
		if !out.Ok {
			issues = append(issues, fmt.Sprintf("%q: %s", label, out.Reason))
		}
		if out.ErrorDelta > 0 {
			issues = append(issues, fmt.Sprintf("%q: click raised %d JS error(s)", label, out.ErrorDelta))
		}

		// restore the original URL when the click navigated
		if after, err := env.Drv.Location(ctx); err == nil && before != "" && after != before {
			if _, err := env.Drv.Navigate(ctx, before); err != nil {
				_ = env.Drv.NavigateBack(ctx)
			}
			env.Engine.Stabilize(ctx, 300*time.Millisecond)
		}
	}

	if len(issues) == 0 {
		return
	}
	led.Add(ctx, ledger.Commit{
		Title:       fmt.Sprintf("%d click-through issue(s) found", len(issues)),
		Severity:    types.SeverityMedium,
		Category:    types.CategoryFunctional,
		Description: fmt.Sprintf("Attempted clicks on %d discovered navigation and button targets.", len(targets)),
		Steps:       []string{"Open " + env.PageURL, "Click each discovered nav/button target", "Return to the original URL after navigation"},
		Details:     truncate(issues, env.Policy.MaxDetails),
	})
}
