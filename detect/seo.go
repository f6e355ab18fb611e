package detect

import (
	"context"

	"github.com/BaSui01/webqa/browser"
	"github.com/BaSui01/webqa/ledger"
	"github.com/BaSui01/webqa/types"
)

// SEOFinding is one missing document-metadata item.
type SEOFinding struct {
	Title       string
	Severity    types.Severity
	Category    types.Category
	Description string
}

// SEOFindings inspects document metadata. Each finding is committed as its
// own bug because the individual items have distinct severities.
func SEOFindings(snap *browser.Snapshot) []SEOFinding {
	var out []SEOFinding
	if snap.Title == "" {
		out = append(out, SEOFinding{
			Title:       "Missing page title",
			Severity:    types.SeverityMedium,
			Category:    types.CategorySEO,
			Description: "The document has no <title> text. Search results and browser tabs show a blank or URL-derived label.",
		})
	}
	if snap.MetaDescription == "" {
		out = append(out, SEOFinding{
			Title:       "Missing meta description",
			Severity:    types.SeverityLow,
			Category:    types.CategorySEO,
			Description: "No meta description is present; search engines will synthesize a snippet from page text.",
		})
	}
	if !snap.HasViewportMeta {
		out = append(out, SEOFinding{
			Title:       "Missing viewport meta tag",
			Severity:    types.SeverityMedium,
			Category:    types.CategoryAccessibility,
			Description: "Without a viewport meta tag the page renders at desktop width on mobile devices.",
		})
	}
	if !snap.HasLang {
		out = append(out, SEOFinding{
			Title:       "Missing html lang attribute",
			Severity:    types.SeverityLow,
			Category:    types.CategoryAccessibility,
			Description: "Screen readers cannot pick the right voice without a document language.",
		})
	}
	if !snap.HasFavicon {
		out = append(out, SEOFinding{
			Title:       "Missing favicon",
			Severity:    types.SeverityLow,
			Category:    types.CategorySEO,
			Description: "No favicon link found; browsers fall back to a generic tab icon.",
		})
	}
	if !snap.HasOpenGraph {
		out = append(out, SEOFinding{
			Title:       "Missing Open Graph tags",
			Severity:    types.SeverityLow,
			Category:    types.CategorySEO,
			Description: "No og: meta tags; shared links render without a preview card.",
		})
	}
	return out
}

func runSEO(ctx context.Context, env *Env, led *ledger.Ledger) {
	for _, f := range SEOFindings(env.Snap) {
		led.Add(ctx, ledger.Commit{
			Title:       f.Title,
			Severity:    f.Severity,
			Category:    f.Category,
			Description: f.Description,
			Steps:       []string{"Open " + env.PageURL, "Inspect document <head> metadata"},
		})
	}
}
