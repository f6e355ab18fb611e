package explore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/BaSui01/webqa/types"
)

// crawlLinksJS discovers same-origin page links, capped.
const crawlLinksJS = `(() => {
	const scan = "crawl-links";
	const cap = 5;
	const seen = new Set();
	const out = [];
	for (const a of document.querySelectorAll("a[href]")) {
		const href = a.href;
		if (!href.startsWith(location.origin)) continue;
		if (href === location.href || href.endsWith("#")) continue;
		if (seen.has(href)) continue;
		seen.add(href);
		out.push(href);
		if (out.length === cap) break;
	}
	return out;
})()`

// pageHealthJS reads the minimal facts the crawler predicate needs.
const pageHealthJS = `(() => {
	const scan = "page-health";
	const text = (document.body ? document.body.innerText : "").trim();
	const lower = text.toLowerCase();
	const phrases = ["internal server error", "something went wrong", "unexpected error", "error 500", "error 404"];
	return {
		textLen: text.length,
		errorText: phrases.find(p => lower.includes(p)) || "",
	};
})()`

type pageHealth struct {
	TextLen   int    `json:"textLen"`
	ErrorText string `json:"errorText"`
}

// runCrawler visits a handful of same-origin links and applies the crawl
// predicate: status < 400, no new JS errors, body text of at least 20
// characters, no error-text match.
func runCrawler(ctx context.Context, s *Session) types.WorkflowResult {
	const name = "site-crawler"

	var links []string
	if err := s.Drv.Evaluate(ctx, crawlLinksJS, &links); err != nil || len(links) == 0 {
		return types.WorkflowResult{Name: name, Passed: true, Error: "no same-origin links found"}
	}

	var steps []types.WorkflowStep
	var issues []string

	for _, link := range links {
		steps = step(steps, "navigate", link, "", "status < 400, body text present, no errors")

		before := errorCount(s)
		status, err := s.Drv.Navigate(ctx, link)
		s.settle(ctx)

		label := pathOf(link)
		switch {
		case err != nil:
			issues = append(issues, fmt.Sprintf("%s: navigation failed", label))
			continue
		case status >= 400:
			issues = append(issues, fmt.Sprintf("%s: HTTP %d", label, status))
		}

		var health pageHealth
		if err := s.Drv.Evaluate(ctx, pageHealthJS, &health); err == nil {
			if health.TextLen < 20 {
				issues = append(issues, fmt.Sprintf("%s: page body nearly empty", label))
			}
			if health.ErrorText != "" {
				issues = append(issues, fmt.Sprintf("%s: error text %q visible", label, health.ErrorText))
			}
		}
		if delta := errorCount(s) - before; delta > 0 {
			issues = append(issues, fmt.Sprintf("%s: %d new JS error(s)", label, delta))
		}
	}

	// return to the page under test
	if _, err := s.Drv.Navigate(ctx, s.BaseURL); err == nil {
		s.settle(ctx)
	}

	return verdict(name, steps, issues)
}

func errorCount(s *Session) int {
	if s.Rec == nil {
		return 0
	}
	return s.Rec.ErrorCount()
}

func pathOf(link string) string {
	if u, err := url.Parse(link); err == nil && u.Path != "" {
		if u.RawQuery != "" {
			return u.Path + "?" + u.RawQuery
		}
		return u.Path
	}
	return strings.TrimPrefix(link, "https://")
}
