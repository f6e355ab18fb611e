package explore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/webqa/action"
	"github.com/BaSui01/webqa/types"
)

// focusStateJS reports the currently focused element and its focus outline.
const focusStateJS = `(() => {
	const scan = "focus-state";
	const el = document.activeElement;
	if (!el || el === document.body) return {selector: "", outline: ""};
	const sel = el.id ? "#" + el.id :
		el.tagName.toLowerCase() + (el.className ? "." + String(el.className).split(/\s+/)[0] : "");
	const st = getComputedStyle(el);
	const outline = st.outlineStyle !== "none" && parseFloat(st.outlineWidth) > 0 ? st.outlineStyle :
		(st.boxShadow !== "none" ? "box-shadow" : "none");
	return {selector: sel, outline: outline};
})()`

type focusState struct {
	Selector string `json:"selector"`
	Outline  string `json:"outline"`
}

// runKeyboard presses Tab repeatedly and requires focus to advance through
// at least 3 distinct elements, each with a visible focus indicator.
func runKeyboard(ctx context.Context, s *Session) types.WorkflowResult {
	const name = "keyboard-tester"

	var steps []types.WorkflowStep
	var issues []string

	distinct := make(map[string]bool)
	noOutline := make(map[string]bool)

	for i := 0; i < s.Policy.TabPresses; i++ {
		out := s.Eng.Perform(ctx, action.Request{Kind: action.PressKey, Key: "Tab"})
		if !out.Ok {
			issues = append(issues, out.Reason)
			break
		}

		var fs focusState
		if err := s.Drv.Evaluate(ctx, focusStateJS, &fs); err != nil || fs.Selector == "" {
			continue
		}
		distinct[fs.Selector] = true
		if fs.Outline == "none" {
			noOutline[fs.Selector] = true
		}
	}
	steps = step(steps, "press_key", "Tab", fmt.Sprintf("x%d", s.Policy.TabPresses),
		"focus advances through distinct elements with visible outlines")

	if len(distinct) < 3 {
		issues = append(issues, fmt.Sprintf("keyboard focus reached only %d distinct element(s)", len(distinct)))
	}
	for sel := range noOutline {
		issues = append(issues, fmt.Sprintf("focused element %s has no visible focus indicator", sel))
	}

	return verdict(name, steps, issues)
}

// scrollStateJS reads page height and sticky-header presence.
const scrollStateJS = `(() => {
	const scan = "scroll-state";
	let sticky = false;
	for (const el of document.querySelectorAll("header, nav, [class*='header' i]")) {
		const st = getComputedStyle(el);
		if (st.position === "sticky" || st.position === "fixed") { sticky = true; break; }
	}
	return {height: document.body ? document.body.scrollHeight : 0, sticky: sticky};
})()`

type scrollState struct {
	Height int  `json:"height"`
	Sticky bool `json:"sticky"`
}

// runScroll scrolls to the bottom and back, noting infinite-scroll growth
// and sticky headers; only JS errors fail the workflow.
func runScroll(ctx context.Context, s *Session) types.WorkflowResult {
	const name = "scroll-tester"

	var steps []types.WorkflowStep
	var issues []string

	var before scrollState
	_ = s.Drv.Evaluate(ctx, scrollStateJS, &before)

	steps = step(steps, "scroll", "bottom", "", "no JS error")
	out := s.Eng.Perform(ctx, action.Request{Kind: action.Scroll, ToBottom: true})
	s.settle(ctx)
	if out.ErrorDelta > 0 {
		issues = append(issues, fmt.Sprintf("scrolling to bottom raised %d JS error(s)", out.ErrorDelta))
	}

	var after scrollState
	_ = s.Drv.Evaluate(ctx, scrollStateJS, &after)
	if after.Height > before.Height {
		s.Logger.Info("infinite scroll detected",
			zap.Int("height_before", before.Height),
			zap.Int("height_after", after.Height))
	}
	if after.Sticky {
		s.Logger.Debug("sticky header present during scroll")
	}

	steps = step(steps, "scroll", "top", "", "no JS error")
	out = s.Eng.Perform(ctx, action.Request{Kind: action.Scroll, ToBottom: false})
	if out.ErrorDelta > 0 {
		issues = append(issues, fmt.Sprintf("scrolling to top raised %d JS error(s)", out.ErrorDelta))
	}

	return verdict(name, steps, issues)
}
