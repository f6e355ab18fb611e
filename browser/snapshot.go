package browser

import (
	"context"
	"fmt"

	"github.com/BaSui01/webqa/config"
)

// Snapshot is the page state the detectors analyze. It is collected in one
// JavaScript evaluation so the detector functions themselves stay pure and
// unit-testable without a browser.
type Snapshot struct {
	URL             string `json:"url"`
	Title           string `json:"title"`
	MetaDescription string `json:"metaDescription"`
	HasViewportMeta bool   `json:"hasViewportMeta"`
	HasLang         bool   `json:"hasLang"`
	HasFavicon      bool   `json:"hasFavicon"`
	HasOpenGraph    bool   `json:"hasOpenGraph"`
	IsHTTPS         bool   `json:"isHttps"`

	BodyText    string `json:"bodyText"`
	BodyTextLen int    `json:"bodyTextLen"`

	Links []string `json:"links"`

	BrokenImages     []string `json:"brokenImages"`
	ImagesNoAlt      int      `json:"imagesNoAlt"`
	UnlabeledButtons int      `json:"unlabeledButtons"`
	UnlabeledLinks   int      `json:"unlabeledLinks"`
	UnlabeledInputs  int      `json:"unlabeledInputs"`
	HeadingSkips     []string `json:"headingSkips"`
	TinyTextCount    int      `json:"tinyTextCount"`
	PositiveTabIndex int      `json:"positiveTabIndex"`

	MixedContent []string `json:"mixedContent"`

	FCPMs          float64  `json:"fcpMs"`
	DOMReadyMs     float64  `json:"domReadyMs"`
	LoadMs         float64  `json:"loadMs"`
	NodeCount      int      `json:"nodeCount"`
	HeavyResources []string `json:"heavyResources"`

	HorizontalOverflowPx int      `json:"horizontalOverflowPx"`
	OverflowingElements  []string `json:"overflowingElements"`
	TruncatedCount       int      `json:"truncatedCount"`
	OccludedElements     []string `json:"occludedElements"`
	EmptyContainers      []string `json:"emptyContainers"`

	DeadLinks      []string `json:"deadLinks"`
	UntypedInputs  int      `json:"untypedInputs"`
	EmptySelects   int      `json:"emptySelects"`
	TinyTouchCount int      `json:"tinyTouchCount"`

	ErrorTextMatches []string `json:"errorTextMatches"`
	MainCollapsed    bool     `json:"mainCollapsed"`
	SpinnerCount     int      `json:"spinnerCount"`
	DevOverlay       string   `json:"devOverlay"`
}

// Collect evaluates the snapshot script against the current page.
func Collect(ctx context.Context, drv Driver, policy config.Policy) (*Snapshot, error) {
	snap := &Snapshot{}
	expr := fmt.Sprintf(snapshotJS, policy.MaxResourceKB, policy.TouchTargetPx)
	if err := drv.Evaluate(ctx, expr, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// snapshotJS gathers every raw page fact the detectors need. Formatting
// parameters: max resource size in KB, minimum touch target edge in px.
// All arrays are bounded so a pathological page cannot blow up the report.
const snapshotJS = `(() => {
	const CAP = 25;
	const maxResourceKB = %d;
	const minTouch = %d;
	const out = {};
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
	const visible = (el) => {
		const r = el.getBoundingClientRect();
		if (r.width === 0 || r.height === 0) return false;
		const st = getComputedStyle(el);
		return st.display !== "none" && st.visibility !== "hidden" && st.opacity !== "0";
	};

	out.url = location.href;
	out.isHttps = location.protocol === "https:";
	out.title = (document.title || "").trim();
	const md = document.querySelector('meta[name="description" i]');
	out.metaDescription = md ? (md.getAttribute("content") || "").trim() : "";
	out.hasViewportMeta = !!document.querySelector('meta[name="viewport" i]');
	out.hasLang = !!(document.documentElement.getAttribute("lang") || "").trim();
	out.hasFavicon = !!document.querySelector('link[rel~="icon" i]');
	out.hasOpenGraph = !!document.querySelector('meta[property^="og:" i]');

	const bodyText = (document.body ? document.body.innerText : "") || "";
	out.bodyTextLen = bodyText.trim().length;
	out.bodyText = bodyText.trim().slice(0, 3000);

	out.links = Array.from(new Set(
		Array.from(document.querySelectorAll("a[href]"))
			.map(a => a.href)
			.filter(h => h.startsWith("http"))
	));

	out.brokenImages = Array.from(document.querySelectorAll("img"))
		.filter(img => img.complete && img.naturalWidth === 0 && img.src)
		.map(img => img.currentSrc || img.src).slice(0, CAP);
	out.imagesNoAlt = Array.from(document.querySelectorAll("img"))
		.filter(img => !img.hasAttribute("alt")).length;

	const unlabeled = (el) => {
		const txt = (el.innerText || el.value || "").trim();
		return !txt && !el.getAttribute("aria-label") && !el.getAttribute("title");
	};
	out.unlabeledButtons = Array.from(document.querySelectorAll('button, [role="button"]')).filter(unlabeled).length;
	out.unlabeledLinks = Array.from(document.querySelectorAll("a[href]")).filter(unlabeled).length;
	out.unlabeledInputs = Array.from(document.querySelectorAll("input:not([type=hidden]), textarea, select"))
		.filter(el => {
			if (el.getAttribute("aria-label") || el.getAttribute("placeholder")) return false;
			return !(el.id && document.querySelector('label[for="' + CSS.escape(el.id) + '"]'));
		}).length;

	out.headingSkips = [];
	let lastLevel = 0;
	for (const h of document.querySelectorAll("h1,h2,h3,h4,h5,h6")) {
		const lvl = parseInt(h.tagName[1], 10);
		if (lastLevel && lvl > lastLevel + 1) out.headingSkips.push("h" + lastLevel + " -> h" + lvl);
		lastLevel = lvl;
	}
	out.headingSkips = out.headingSkips.slice(0, CAP);

	let tiny = 0;
	let tinyTouch = 0;
	const interactive = Array.from(document.querySelectorAll('a[href], button, input, select, textarea, [role="button"]'));
	for (const el of interactive) {
		if (!visible(el)) continue;
		if (parseFloat(getComputedStyle(el).fontSize) < 10) tiny++;
		const r = el.getBoundingClientRect();
		if (r.width > 0 && r.width < minTouch && r.height > 0 && r.height < minTouch) tinyTouch++;
	}
	out.tinyTextCount = tiny;
	out.tinyTouchCount = tinyTouch;
	out.positiveTabIndex = Array.from(document.querySelectorAll("[tabindex]"))
		.filter(el => parseInt(el.getAttribute("tabindex"), 10) > 0).length;

	out.mixedContent = [];
	if (out.isHttps) {
		for (const e of performance.getEntriesByType("resource")) {
			if (e.name.startsWith("http://")) out.mixedContent.push(e.name);
		}
		out.mixedContent = out.mixedContent.slice(0, CAP);
	}

	const nav = performance.getEntriesByType("navigation")[0];
	out.domReadyMs = nav ? nav.domContentLoadedEventEnd : 0;
	out.loadMs = nav ? nav.loadEventEnd : 0;
	const fcp = performance.getEntriesByName("first-contentful-paint")[0];
	out.fcpMs = fcp ? fcp.startTime : 0;
	out.nodeCount = document.getElementsByTagName("*").length;
	out.heavyResources = performance.getEntriesByType("resource")
		.filter(e => e.transferSize > maxResourceKB * 1024)
		.map(e => e.name + " (" + Math.round(e.transferSize / 1024) + " KB)")
		.slice(0, CAP);

	const vw = window.innerWidth;
	out.horizontalOverflowPx = Math.max(0, document.documentElement.scrollWidth - vw);
	out.overflowingElements = [];
	out.emptyContainers = [];
	let truncated = 0;
	for (const el of document.querySelectorAll("body *")) {
		const r = el.getBoundingClientRect();
		if (r.width === 0 && r.height === 0) continue;
		if (r.right > vw + 5 && out.overflowingElements.length < CAP && visible(el)) {
			out.overflowingElements.push(sel(el));
		}
		const st = getComputedStyle(el);
		if (st.textOverflow === "ellipsis" && el.scrollWidth > el.clientWidth + 1) truncated++;
		if (out.emptyContainers.length < CAP && r.width > 100 && r.height > 100 &&
			el.children.length === 0 && !(el.innerText || "").trim() &&
			!["IMG", "SVG", "VIDEO", "CANVAS", "IFRAME", "INPUT", "TEXTAREA", "SELECT"].includes(el.tagName) &&
			st.backgroundImage === "none") {
			out.emptyContainers.push(sel(el));
		}
	}
	out.truncatedCount = truncated;

	out.occludedElements = [];
	for (const el of interactive.slice(0, 50)) {
		if (!visible(el)) continue;
		const r = el.getBoundingClientRect();
		const cx = r.left + r.width / 2, cy = r.top + r.height / 2;
		if (cx < 0 || cy < 0 || cx > vw || cy > window.innerHeight) continue;
		const top = document.elementFromPoint(cx, cy);
		if (top && top !== el && !el.contains(top) && !top.contains(el) && out.occludedElements.length < CAP) {
			out.occludedElements.push(sel(el) + " blocked by " + sel(top));
		}
	}

	out.deadLinks = Array.from(document.querySelectorAll("a[href]"))
		.filter(a => {
			const h = a.getAttribute("href") || "";
			return (h === "#" || h.startsWith("javascript:void")) && !a.onclick && !a.getAttribute("role");
		})
		.map(sel).slice(0, CAP);
	out.untypedInputs = Array.from(document.querySelectorAll("input:not([type])")).length;
	out.emptySelects = Array.from(document.querySelectorAll("select"))
		.filter(s => s.options.length === 0).length;

	const errorPhrases = [
		"internal server error", "something went wrong", "unexpected error",
		"cannot read properties", "undefined is not", "nan", "[object object]",
		"stack trace", "exception occurred", "error 500", "error 404",
	];
	const lower = bodyText.toLowerCase();
	out.errorTextMatches = errorPhrases.filter(p => {
		if (p === "nan") return /\bNaN\b/.test(bodyText);
		return lower.includes(p);
	}).slice(0, CAP);

	const main = document.querySelector("main, #root, #app, [role=main]");
	out.mainCollapsed = !!main && main.getBoundingClientRect().height < 50 && out.bodyTextLen > 0;
	out.spinnerCount = Array.from(document.querySelectorAll(
		'[class*="spinner" i], [class*="loading" i], [aria-busy="true"]'
	)).filter(visible).length;
	const overlay = document.querySelector(
		"vite-error-overlay, #webpack-dev-server-client-overlay, iframe#react-refresh-overlay, nextjs-portal"
	);
	out.devOverlay = overlay ? overlay.tagName.toLowerCase() : "";

	return out;
})()`
