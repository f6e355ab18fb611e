package explore

import (
	"context"
	"fmt"

	"github.com/BaSui01/webqa/action"
	"github.com/BaSui01/webqa/types"
)

// navLinksJS discovers primary navigation links, capped.
const navLinksJS = `(() => {
	const scan = "nav-links";
	const cap = 5;
	const sel = (el) => {
		if (el.id) return "#" + el.id;
		const href = el.getAttribute("href");
		if (href) return 'a[href="' + href + '"]';
		return "a";
	};
	const out = [];
	const seen = new Set();
	for (const a of document.querySelectorAll("nav a[href], header a[href]")) {
		const r = a.getBoundingClientRect();
		if (r.width === 0 || r.height === 0) continue;
		const href = a.href;
		if (seen.has(href) || href.endsWith("#")) continue;
		seen.add(href);
		out.push({selector: sel(a), label: (a.innerText || "").trim().slice(0, 40)});
		if (out.length === cap) break;
	}
	return out;
})()`

// contentKeyJS fingerprints the visible content so "URL or content changed"
// is checkable for single-page apps.
const contentKeyJS = `(() => {
	const scan = "content-key";
	const text = (document.body ? document.body.innerText : "").trim();
	return text.length + ":" + text.slice(0, 120);
})()`

// runNavigation clicks nav links, requires a URL or content change, and
// requires an error-free return via back-navigation.
func runNavigation(ctx context.Context, s *Session) types.WorkflowResult {
	const name = "navigation-tester"

	var links []trigger
	if err := s.Drv.Evaluate(ctx, navLinksJS, &links); err != nil || len(links) == 0 {
		return types.WorkflowResult{Name: name, Passed: true, Error: "no navigation links found"}
	}

	var steps []types.WorkflowStep
	var issues []string

	for _, l := range links {
		label := l.Label
		if label == "" {
			label = l.Selector
		}
		steps = step(steps, "click", l.Selector, "", "URL or content changes, back returns cleanly")

		beforeURL, _ := s.Drv.Location(ctx)
		var beforeKey string
		_ = s.Drv.Evaluate(ctx, contentKeyJS, &beforeKey)

		out := s.Eng.Perform(ctx, action.Request{Kind: action.Click, Selector: l.Selector})
		s.settle(ctx)
		if !out.Ok {
			issues = append(issues, fmt.Sprintf("nav %q: %s", label, out.Reason))
			continue
		}

		afterURL, _ := s.Drv.Location(ctx)
		var afterKey string
		_ = s.Drv.Evaluate(ctx, contentKeyJS, &afterKey)

		if afterURL == beforeURL && afterKey == beforeKey {
			issues = append(issues, fmt.Sprintf("nav %q changed neither URL nor content", label))
		}
		if out.ErrorDelta > 0 {
			issues = append(issues, fmt.Sprintf("nav %q: %d new JS error(s)", label, out.ErrorDelta))
		}

		if afterURL != beforeURL {
			before := errorCount(s)
			if err := s.Drv.NavigateBack(ctx); err != nil {
				issues = append(issues, fmt.Sprintf("nav %q: back-navigation failed", label))
			}
			s.settle(ctx)
			if delta := errorCount(s) - before; delta > 0 {
				issues = append(issues, fmt.Sprintf("nav %q: %d JS error(s) on back-navigation", label, delta))
			}
		}
	}

	return verdict(name, steps, issues)
}

// hoverTargetsJS discovers tooltip-bearing elements, capped.
const hoverTargetsJS = `(() => {
	const scan = "hover-targets";
	const cap = 5;
	const sel = (el) => el.id ? "#" + el.id : el.tagName.toLowerCase() + "[title]";
	const out = [];
	for (const el of document.querySelectorAll("[title], [data-tooltip], [aria-describedby]")) {
		const r = el.getBoundingClientRect();
		if (r.width === 0 || r.height === 0) continue;
		out.push({selector: sel(el), label: (el.getAttribute("title") || el.getAttribute("data-tooltip") || "").slice(0, 40)});
		if (out.length === cap) break;
	}
	return out;
})()`

// runHover hovers tooltip-bearing elements; tooltip visibility is observed
// but only a JS error is a failure.
func runHover(ctx context.Context, s *Session) types.WorkflowResult {
	const name = "hover-tester"

	var targets []trigger
	if err := s.Drv.Evaluate(ctx, hoverTargetsJS, &targets); err != nil || len(targets) == 0 {
		return types.WorkflowResult{Name: name, Passed: true, Error: "no tooltip-bearing elements found"}
	}

	var steps []types.WorkflowStep
	var issues []string

	for _, t := range targets {
		steps = step(steps, "hover", t.Selector, "", "no JS error on hover")
		out := s.Eng.Perform(ctx, action.Request{Kind: action.Hover, Selector: t.Selector})
		if out.ErrorDelta > 0 {
			issues = append(issues, fmt.Sprintf("hover on %s raised %d JS error(s)", t.Selector, out.ErrorDelta))
		}
	}

	return verdict(name, steps, issues)
}
