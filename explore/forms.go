package explore

import (
	"context"
	"fmt"
	"strings"

	"github.com/BaSui01/webqa/action"
	"github.com/BaSui01/webqa/types"
)

// FormField is one fillable control discovered on the page.
type FormField struct {
	Selector    string `json:"selector"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Placeholder string `json:"placeholder"`
}

// SyntheticValue picks a type-appropriate test value for a field. The policy
// table is keyed by input type first, then by name/placeholder vocabulary.
func SyntheticValue(f FormField) string {
	hint := strings.ToLower(f.Type + " " + f.Name + " " + f.Placeholder)
	switch {
	case f.Type == "email" || strings.Contains(hint, "email"):
		return "test@example.com"
	case f.Type == "password" || strings.Contains(hint, "password"):
		return "Str0ngP@ssw0rd!"
	case f.Type == "number" || strings.Contains(hint, "amount") || strings.Contains(hint, "quantity"):
		return "100"
	case f.Type == "tel" || strings.Contains(hint, "phone"):
		return "+14155550123"
	case f.Type == "url" || strings.Contains(hint, "website"):
		return "https://example.com"
	case f.Type == "search" || strings.Contains(hint, "search"):
		return "test query"
	case strings.Contains(hint, "wallet") || strings.Contains(hint, "address"):
		return "3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy"
	case f.Type == "date" || strings.Contains(hint, "date"):
		return "2024-01-15"
	default:
		return "42"
	}
}

// formFieldsJS discovers visible fillable fields, capped to keep runs bounded.
const formFieldsJS = `(() => {
	const scan = "form-fields";
	const cap = 10;
	const sel = (el) => {
		if (el.id) return "#" + el.id;
		if (el.name) return el.tagName.toLowerCase() + '[name="' + el.name + '"]';
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
	for (const el of document.querySelectorAll('input:not([type=hidden]):not([type=submit]):not([type=checkbox]):not([type=radio]):not([type=file]), textarea')) {
		const r = el.getBoundingClientRect();
		if (r.width === 0 || r.height === 0 || el.disabled || el.readOnly) continue;
		out.push({
			selector: sel(el),
			type: (el.getAttribute("type") || "text").toLowerCase(),
			name: el.name || "",
			placeholder: el.placeholder || "",
		});
		if (out.length === cap) break;
	}
	return out;
})()`

// validationJS looks for inline validation error markup after filling.
const validationJS = `(() => {
	const scan = "form-validation";
	return Array.from(document.querySelectorAll(
		'[class*="error" i]:not(script), [role="alert"], [aria-invalid="true"]'
	)).filter(el => {
		const r = el.getBoundingClientRect();
		return r.width > 0 && r.height > 0 && (el.innerText || "").trim().length > 0;
	}).length;
})()`

// runForms fills every discovered field with a synthetic value and checks
// for rejected input and JS errors.
func runForms(ctx context.Context, s *Session) types.WorkflowResult {
	const name = "form-tester"

	var fields []FormField
	if err := s.Drv.Evaluate(ctx, formFieldsJS, &fields); err != nil || len(fields) == 0 {
		return types.WorkflowResult{Name: name, Passed: true, Error: "no fillable fields found"}
	}

	var steps []types.WorkflowStep
	var issues []string

	for _, f := range fields {
		value := SyntheticValue(f)
		steps = step(steps, "fill", f.Selector, value, "value accepted without JS error")

		out := s.Eng.Perform(ctx, action.Request{Kind: action.Fill, Selector: f.Selector, Value: value})
		if !out.Ok {
			issues = append(issues, out.Reason)
			continue
		}
		if out.ErrorDelta > 0 {
			issues = append(issues, fmt.Sprintf("filling %s raised %d JS error(s)", f.Selector, out.ErrorDelta))
		}
	}

	s.settle(ctx)

	var errorMarkers int
	if err := s.Drv.Evaluate(ctx, validationJS, &errorMarkers); err == nil && errorMarkers > 0 {
		issues = append(issues, fmt.Sprintf("%d inline validation error(s) shown for synthetic values", errorMarkers))
	}

	return verdict(name, steps, issues)
}
