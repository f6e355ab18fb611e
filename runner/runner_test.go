package runner

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/webqa/browser"
	"github.com/BaSui01/webqa/config"
	"github.com/BaSui01/webqa/explore"
	"github.com/BaSui01/webqa/testutil"
	"github.com/BaSui01/webqa/types"
)

// hardenedServer serves a page whose response carries every hardening header
// so the security detector stays quiet.
func hardenedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", "default-src 'self'")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Strict-Transport-Security", "max-age=63072000")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Permissions-Policy", "geolocation=()")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func quietSnapshot(url string) *browser.Snapshot {
	return &browser.Snapshot{
		URL:             url,
		Title:           "Example",
		MetaDescription: "An example page",
		HasViewportMeta: true,
		HasLang:         true,
		HasFavicon:      true,
		HasOpenGraph:    true,
		IsHTTPS:         true,
		BodyText:        "Welcome to the example page with plenty of text.",
		BodyTextLen:     48,
	}
}

// scriptQuietPage registers scripted results for every page scan so no
// workflow or detector finds anything.
func scriptQuietPage(drv *testutil.FakeDriver, snap *browser.Snapshot) {
	drv.Script("maxResourceKB", snap).
		Script("crawl-links", []string{}).
		Script("form-fields", []explore.FormField{}).
		Script("modal-triggers", []any{}).
		Script("tab-triggers", []any{}).
		Script("connect-triggers", []any{}).
		Script("nav-links", []any{}).
		Script("hover-targets", []any{}).
		Script("focus-state", map[string]any{"selector": "#a", "outline": "solid"}).
		Script("scroll-state", map[string]any{"height": 1000, "sticky": false}).
		Script("content-key", "0:")
}

func testRunner(t *testing.T, drv *testutil.FakeDriver) *Runner {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Output.Root = t.TempDir()
	cfg.Output.Zip = true

	r := New(*cfg, zap.NewNop())
	r.NewDriver = func(config.BrowserConfig, *browser.Recorder, *zap.Logger) (browser.Driver, error) {
		return drv, nil
	}
	r.Progress = &bytes.Buffer{}
	return r
}

func TestRunCleanPageProducesNoBugs(t *testing.T) {
	srv := hardenedServer(t)
	drv := testutil.NewFakeDriver()
	drv.URL = srv.URL + "/"
	scriptQuietPage(drv, quietSnapshot(srv.URL+"/"))

	r := testRunner(t, drv)
	res, err := r.Run(context.Background(), srv.URL+"/", "full")
	require.NoError(t, err)

	assert.Empty(t, res.Bugs)
	assert.Len(t, res.Workflows, 9, "all deterministic workflows recorded")
	assert.FileExists(t, res.ReportPath)
	assert.FileExists(t, res.ZipPath)
}

func TestRunMissingTitleAndDescription(t *testing.T) {
	srv := hardenedServer(t)
	snap := quietSnapshot(srv.URL + "/")
	snap.Title = ""
	snap.MetaDescription = ""

	drv := testutil.NewFakeDriver()
	drv.URL = srv.URL + "/"
	scriptQuietPage(drv, snap)

	res, err := testRunner(t, drv).Run(context.Background(), srv.URL+"/", "")
	require.NoError(t, err)

	require.Len(t, res.Bugs, 2)
	assert.Equal(t, "BUG-001", res.Bugs[0].ID)
	assert.Equal(t, "Missing page title", res.Bugs[0].Title)
	assert.Equal(t, types.SeverityMedium, res.Bugs[0].Severity)
	assert.Equal(t, "BUG-002", res.Bugs[1].ID)
	assert.Equal(t, types.SeverityLow, res.Bugs[1].Severity)

	data, err := os.ReadFile(res.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "BUG-001: Missing page title")
}

func TestRunNavigationStatusBug(t *testing.T) {
	srv := hardenedServer(t)
	drv := testutil.NewFakeDriver()
	drv.URL = srv.URL + "/"
	drv.NavStatus = 503
	scriptQuietPage(drv, quietSnapshot(srv.URL+"/"))

	res, err := testRunner(t, drv).Run(context.Background(), srv.URL+"/", "")
	require.NoError(t, err, "a failing page is a finding, not a scan error")

	require.NotEmpty(t, res.Bugs)
	assert.Equal(t, "Page responded with HTTP 503", res.Bugs[0].Title)
	assert.Equal(t, types.SeverityHigh, res.Bugs[0].Severity)
	assert.Equal(t, types.CategoryNavigation, res.Bugs[0].Category)
}

func TestRunWritesScreenshotEvidence(t *testing.T) {
	srv := hardenedServer(t)
	snap := quietSnapshot(srv.URL + "/")
	snap.Title = ""

	drv := testutil.NewFakeDriver()
	drv.URL = srv.URL + "/"
	drv.ShotData = []byte("png-bytes")
	scriptQuietPage(drv, snap)

	r := testRunner(t, drv)
	res, err := r.Run(context.Background(), srv.URL+"/", "")
	require.NoError(t, err)

	require.NotEmpty(t, res.Bugs)
	assert.Equal(t, []string{"screenshots/BUG-001.png"}, res.Bugs[0].Evidence)
	assert.FileExists(t, filepath.Join(r.Cfg.Output.Root, res.RunID, "screenshots", "BUG-001.png"))
}

func TestRunContextDerivesArtifactPaths(t *testing.T) {
	rc := newRunContext(filepath.Join("out", "scans"))

	assert.NotEmpty(t, rc.runID)
	assert.NotContains(t, rc.runID, "-", "run ID is the short UUID prefix")
	assert.Equal(t, filepath.Join("out", "scans", rc.runID), rc.outputRoot)
	assert.Equal(t, filepath.Join(rc.outputRoot, "screenshots"), rc.screenshotDir)
	assert.Equal(t, filepath.Join(rc.outputRoot, "report.md"), rc.reportPath)
}
