package detect

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/webqa/ledger"
	"github.com/BaSui01/webqa/types"
)

// securityHeaders are the response headers whose absence is reported.
var securityHeaders = []struct {
	name string
	why  string
}{
	{"Content-Security-Policy", "no CSP, inline script injection is unmitigated"},
	{"X-Content-Type-Options", "MIME sniffing is not disabled"},
	{"X-Frame-Options", "page can be framed for clickjacking"},
	{"Strict-Transport-Security", "no HSTS, downgrade attacks possible"},
	{"Referrer-Policy", "full referrer leaks to third parties"},
	{"Permissions-Policy", "powerful browser features are not restricted"},
}

// MissingSecurityHeaders lists the standard hardening headers absent from
// the main document response.
func MissingSecurityHeaders(h http.Header) []string {
	var missing []string
	for _, sh := range securityHeaders {
		if h.Get(sh.name) == "" {
			missing = append(missing, fmt.Sprintf("missing %s (%s)", sh.name, sh.why))
		}
	}
	return missing
}

func runSecurity(ctx context.Context, env *Env, led *ledger.Ledger) {
	var issues []string
	missingCount := 0

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.PageURL, nil)
	if err == nil {
		if resp, rerr := env.HTTP.Do(req); rerr == nil {
			resp.Body.Close()
			missing := MissingSecurityHeaders(resp.Header)
			missingCount = len(missing)
			issues = append(issues, missing...)
		} else if env.Logger != nil {
			env.Logger.Debug("security header fetch failed", zap.Error(rerr))
		}
	}

	for _, m := range env.Snap.MixedContent {
		issues = append(issues, "mixed content: insecure resource "+m)
	}

	if len(issues) == 0 {
		return
	}

	severity := types.SeverityMedium
	if missingCount > env.Policy.MissingHeadersHigh || len(env.Snap.MixedContent) > 0 {
		severity = types.SeverityHigh
	}
	led.Add(ctx, ledger.Commit{
		Title:       fmt.Sprintf("%d security issue(s) found", len(issues)),
		Severity:    severity,
		Category:    types.CategorySecurity,
		Description: "Security response-header audit plus HTTP sub-resource scan on an HTTPS page.",
		Steps:       []string{"GET " + env.PageURL, "Inspect response headers and loaded resource origins"},
		Details:     truncate(issues, env.Policy.MaxDetails),
	})
}
