package detect

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/webqa/config"
	"github.com/BaSui01/webqa/ledger"
	"github.com/BaSui01/webqa/types"
)

// SelectLinks returns the first cap unique absolute links in document order.
func SelectLinks(links []string, cap int) []string {
	seen := make(map[string]bool, len(links))
	var out []string
	for _, l := range links {
		if seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
		if len(out) == cap {
			break
		}
	}
	return out
}

// CheckLinks issues a HEAD request for every link and reports the broken
// ones as "<url> -> <status>" or "<url> -> <network error>". Results keep
// the input order regardless of completion order.
func CheckLinks(ctx context.Context, client *http.Client, links []string, policy config.Policy) []string {
	type verdict struct {
		idx    int
		broken string
	}

	var mu sync.Mutex
	var verdicts []verdict

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(policy.LinkConcurrency)

	for i, link := range links {
		g.Go(func() error {
			b := headOne(gctx, client, link, policy)
			if b != "" {
				mu.Lock()
				verdicts = append(verdicts, verdict{idx: i, broken: b})
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; a failed link is a finding

	sort.Slice(verdicts, func(a, b int) bool { return verdicts[a].idx < verdicts[b].idx })
	out := make([]string, 0, len(verdicts))
	for _, v := range verdicts {
		out = append(out, v.broken)
	}
	return out
}

func headOne(ctx context.Context, client *http.Client, link string, policy config.Policy) string {
	rctx, cancel := context.WithTimeout(ctx, policy.LinkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(rctx, http.MethodHead, link, nil)
	if err != nil {
		return fmt.Sprintf("%s -> %v", link, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Sprintf("%s -> request failed", link)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Sprintf("%s -> %d", link, resp.StatusCode)
	}
	return ""
}

func runBrokenLinks(ctx context.Context, env *Env, led *ledger.Ledger) {
	links := SelectLinks(env.Snap.Links, env.Policy.LinkCap)
	if len(links) == 0 {
		return
	}
	broken := CheckLinks(ctx, env.HTTP, links, env.Policy)
	if len(broken) == 0 {
		return
	}
	led.Add(ctx, ledger.Commit{
		Title:       fmt.Sprintf("%d broken link(s) found", len(broken)),
		Severity:    escalate(len(broken), env.Policy.BrokenLinksHigh),
		Category:    types.CategoryNavigation,
		Description: fmt.Sprintf("HEAD-checked the first %d unique absolute links on the page.", len(links)),
		Steps:       []string{"Open " + env.PageURL, "HEAD-request each unique absolute link"},
		Details:     truncate(broken, env.Policy.MaxDetails),
	})
}
