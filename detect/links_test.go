package detect

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/webqa/browser"
	"github.com/BaSui01/webqa/config"
	"github.com/BaSui01/webqa/ledger"
	"github.com/BaSui01/webqa/types"
)

func TestCheckLinksFortyUniqueThreeBroken(t *testing.T) {
	// 40 unique links, 3 of them 404; only the first 30 are considered and
	// the broken ones appear with a "-> 404" suffix
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page-03", "/page-11", "/page-27":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	links := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		links = append(links, fmt.Sprintf("%s/page-%02d", srv.URL, i))
	}

	policy := config.DefaultPolicy()
	selected := SelectLinks(links, policy.LinkCap)
	require.Len(t, selected, 30)

	broken := CheckLinks(context.Background(), srv.Client(), selected, policy)
	require.Len(t, broken, 3)
	assert.Equal(t, srv.URL+"/page-03 -> 404", broken[0])
	assert.Equal(t, srv.URL+"/page-11 -> 404", broken[1])
	assert.Equal(t, srv.URL+"/page-27 -> 404", broken[2])
}

func TestCheckLinksNetworkFailure(t *testing.T) {
	policy := config.DefaultPolicy()
	broken := CheckLinks(context.Background(), http.DefaultClient,
		[]string{"http://127.0.0.1:1/unreachable"}, policy)
	require.Len(t, broken, 1)
	assert.Contains(t, broken[0], "-> request failed")
}

func TestRunBrokenLinksSeverity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	links := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		links = append(links, fmt.Sprintf("%s/dead-%d", srv.URL, i))
	}

	led := ledger.New(nil, nil)
	env := &Env{
		Snap:    &browser.Snapshot{Links: links},
		HTTP:    srv.Client(),
		Policy:  config.DefaultPolicy(),
		PageURL: srv.URL,
	}
	runBrokenLinks(context.Background(), env, led)

	entries := led.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, types.SeverityHigh, entries[0].Severity, "more than 5 broken links escalates to High")
	assert.Len(t, entries[0].Details, 6)
}

func TestMissingSecurityHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Content-Security-Policy", "default-src 'self'")
	h.Set("Strict-Transport-Security", "max-age=63072000")

	missing := MissingSecurityHeaders(h)
	assert.Len(t, missing, 4)
	for _, m := range missing {
		assert.NotContains(t, m, "Content-Security-Policy")
		assert.NotContains(t, m, "Strict-Transport-Security")
	}
}
