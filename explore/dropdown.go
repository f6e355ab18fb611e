package explore

import (
	"context"
	"fmt"

	"github.com/BaSui01/webqa/action"
	"github.com/BaSui01/webqa/types"
)

// tabTarget is one inactive tab or listbox trigger.
type tabTarget struct {
	Selector string `json:"selector"`
	Label    string `json:"label"`
}

// tabTriggersJS discovers inactive tabs and collapsed listbox triggers.
const tabTriggersJS = `(() => {
	const scan = "tab-triggers";
	const cap = 6;
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
	for (const el of document.querySelectorAll('[role="tab"][aria-selected="false"], [role="combobox"][aria-expanded="false"], [aria-haspopup="listbox"][aria-expanded="false"]')) {
		const r = el.getBoundingClientRect();
		if (r.width === 0 || r.height === 0) continue;
		out.push({selector: sel(el), label: (el.innerText || "").trim().slice(0, 40)});
		if (out.length === cap) break;
	}
	return out;
})()`

// tabStateJS reports whether the clicked trigger toggled its active state or
// made a menu visible.
const tabStateJS = `((selector) => {
	const scan = "tab-state";
	const el = document.querySelector(selector);
	if (!el) return {toggled: false};
	if (el.getAttribute("aria-selected") === "true") return {toggled: true};
	if (el.getAttribute("aria-expanded") === "true") return {toggled: true};
	if (/\bactive\b|\bselected\b/.test(el.className)) return {toggled: true};
	const menu = document.querySelector('[role="listbox"], [role="menu"]');
	if (menu) {
		const r = menu.getBoundingClientRect();
		if (r.width > 0 && r.height > 0) return {toggled: true};
	}
	return {toggled: false};
})(%q)`

type tabState struct {
	Toggled bool `json:"toggled"`
}

// runDropdowns clicks inactive tabs and listbox triggers and requires an
// active-state toggle or a visible menu.
func runDropdowns(ctx context.Context, s *Session) types.WorkflowResult {
	const name = "dropdown-tab-tester"

	var targets []tabTarget
	if err := s.Drv.Evaluate(ctx, tabTriggersJS, &targets); err != nil || len(targets) == 0 {
		return types.WorkflowResult{Name: name, Passed: true, Error: "no inactive tabs or dropdown triggers found"}
	}

	var steps []types.WorkflowStep
	var issues []string

	for _, t := range targets {
		label := t.Label
		if label == "" {
			label = t.Selector
		}
		steps = step(steps, "click", t.Selector, "", "tab activates or menu becomes visible")

		out := s.Eng.Perform(ctx, action.Request{Kind: action.Click, Selector: t.Selector})
		s.settle(ctx)
		if !out.Ok {
			issues = append(issues, fmt.Sprintf("tab %q: %s", label, out.Reason))
			continue
		}

		var st tabState
		if err := s.Drv.Evaluate(ctx, fmt.Sprintf(tabStateJS, t.Selector), &st); err != nil || !st.Toggled {
			issues = append(issues, fmt.Sprintf("tab %q did not toggle its active state after click", label))
		}
		if out.ErrorDelta > 0 {
			issues = append(issues, fmt.Sprintf("tab %q: click raised %d JS error(s)", label, out.ErrorDelta))
		}
	}

	return verdict(name, steps, issues)
}
