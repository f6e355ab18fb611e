package explore

import (
	"context"
	"fmt"

	"github.com/BaSui01/webqa/action"
	"github.com/BaSui01/webqa/types"
)

// trigger is one clickable element expected to open an overlay or panel.
type trigger struct {
	Selector string `json:"selector"`
	Label    string `json:"label"`
}

// modalTriggersJS matches likely modal openers by label vocabulary or an
// explicit popup attribute, capped.
const modalTriggersJS = `(() => {
	const scan = "modal-triggers";
	const cap = 6;
	const words = /connect|wallet|settings|menu|sign|login|log in|select|filter|detail/i;
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
	for (const el of document.querySelectorAll('button, [role="button"], a[href="#"]')) {
		const r = el.getBoundingClientRect();
		if (r.width === 0 || r.height === 0) continue;
		const label = (el.innerText || el.getAttribute("aria-label") || "").trim();
		if (!words.test(label) && !el.getAttribute("aria-haspopup")) continue;
		out.push({selector: sel(el), label: label.slice(0, 40)});
		if (out.length === cap) break;
	}
	return out;
})()`

// modalStateJS inspects any open dialog/overlay.
const modalStateJS = `(() => {
	const scan = "modal-state";
	const dlg = document.querySelector(
		'[role="dialog"], [aria-modal="true"], dialog[open], .modal.show, .modal.open, [class*="modal" i][class*="open" i]'
	);
	if (!dlg) return {open: false};
	const r = dlg.getBoundingClientRect();
	if (r.width === 0 || r.height === 0) return {open: false};
	const close = dlg.querySelector(
		'[aria-label*="close" i], [class*="close" i], button[title*="close" i]'
	);
	return {
		open: true,
		textLen: (dlg.innerText || "").trim().length,
		hasClose: !!close,
		options: dlg.querySelectorAll("button, li, [role=option], [role=menuitem]").length,
	};
})()`

type modalState struct {
	Open     bool `json:"open"`
	TextLen  int  `json:"textLen"`
	HasClose bool `json:"hasClose"`
	Options  int  `json:"options"`
}

func (s *Session) modalState(ctx context.Context) modalState {
	var st modalState
	_ = s.Drv.Evaluate(ctx, modalStateJS, &st)
	return st
}

// dismissModal tries Escape first, then a close button, allowing one retry.
func (s *Session) dismissModal(ctx context.Context) bool {
	for attempt := 0; attempt < 2; attempt++ {
		s.Eng.Perform(ctx, action.Request{Kind: action.PressKey, Key: "Escape"})
		s.settle(ctx)
		if !s.modalState(ctx).Open {
			return true
		}
		s.Eng.Perform(ctx, action.Request{Kind: action.Click, Selector: `[role="dialog"] [class*="close" i], [role="dialog"] [aria-label*="close" i]`})
		s.settle(ctx)
		if !s.modalState(ctx).Open {
			return true
		}
	}
	return false
}

// runModals clicks likely modal triggers and requires a recognizable dialog
// to appear, expose a close affordance and non-trivial text, and dismiss.
func runModals(ctx context.Context, s *Session) types.WorkflowResult {
	const name = "modal-tester"

	var triggers []trigger
	if err := s.Drv.Evaluate(ctx, modalTriggersJS, &triggers); err != nil || len(triggers) == 0 {
		return types.WorkflowResult{Name: name, Passed: true, Error: "no modal triggers found"}
	}

	var steps []types.WorkflowStep
	var issues []string

	for _, t := range triggers {
		steps = step(steps, "click", t.Selector, "", "dialog opens and can be dismissed")

		out := s.Eng.Perform(ctx, action.Request{Kind: action.Click, Selector: t.Selector})
		s.settle(ctx)
		if !out.Ok {
			issues = append(issues, fmt.Sprintf("%q: %s", t.Label, out.Reason))
			continue
		}

		st := s.modalState(ctx)
		if !st.Open {
			// not every matched trigger opens a modal; only a JS error makes it a defect
			if out.ErrorDelta > 0 {
				issues = append(issues, fmt.Sprintf("%q: click raised %d JS error(s) and no dialog appeared", t.Label, out.ErrorDelta))
			}
			continue
		}

		if st.TextLen < 10 {
			issues = append(issues, fmt.Sprintf("%q: dialog opened with no meaningful content", t.Label))
		}
		if !st.HasClose {
			issues = append(issues, fmt.Sprintf("%q: dialog has no visible close affordance", t.Label))
		}
		if !s.dismissModal(ctx) {
			issues = append(issues, fmt.Sprintf("%q: dialog could not be dismissed with Escape or close button", t.Label))
		}
	}

	return verdict(name, steps, issues)
}

// connectTriggersJS restricts the trigger vocabulary to wallet/sign-in flows.
const connectTriggersJS = `(() => {
	const scan = "connect-triggers";
	const cap = 3;
	const words = /connect|wallet|sign in|log in|sign up/i;
	const sel = (el) => el.id ? "#" + el.id : el.tagName.toLowerCase();
	const out = [];
	for (const el of document.querySelectorAll('button, [role="button"], a')) {
		const r = el.getBoundingClientRect();
		if (r.width === 0 || r.height === 0) continue;
		const label = (el.innerText || el.getAttribute("aria-label") || "").trim();
		if (!words.test(label)) continue;
		out.push({selector: sel(el), label: label.slice(0, 40)});
		if (out.length === cap) break;
	}
	return out;
})()`

// runConnectFlow opens wallet/sign-in entry points and requires the
// resulting panel to expose selectable options.
func runConnectFlow(ctx context.Context, s *Session) types.WorkflowResult {
	const name = "connect-flow-tester"

	var triggers []trigger
	if err := s.Drv.Evaluate(ctx, connectTriggersJS, &triggers); err != nil || len(triggers) == 0 {
		return types.WorkflowResult{Name: name, Passed: true, Error: "no connect or sign-in entry points found"}
	}

	var steps []types.WorkflowStep
	var issues []string

	for _, t := range triggers {
		steps = step(steps, "click", t.Selector, "", "panel opens with selectable options")

		out := s.Eng.Perform(ctx, action.Request{Kind: action.Click, Selector: t.Selector})
		s.settle(ctx)
		if !out.Ok {
			issues = append(issues, fmt.Sprintf("%q: %s", t.Label, out.Reason))
			continue
		}

		st := s.modalState(ctx)
		if !st.Open {
			issues = append(issues, fmt.Sprintf("%q: no panel appeared after click", t.Label))
			continue
		}
		if st.Options == 0 {
			issues = append(issues, fmt.Sprintf("%q: panel opened but offers no selectable options", t.Label))
		}
		s.dismissModal(ctx)
	}

	return verdict(name, steps, issues)
}
