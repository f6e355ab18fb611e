// Package runner orchestrates one full scan: navigate, snapshot, heuristic
// detectors, deterministic workflows, oracle-steered exploration, aggregate
// detectors, then the report.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/webqa/action"
	"github.com/BaSui01/webqa/agent"
	"github.com/BaSui01/webqa/browser"
	"github.com/BaSui01/webqa/config"
	"github.com/BaSui01/webqa/detect"
	"github.com/BaSui01/webqa/explore"
	"github.com/BaSui01/webqa/internal/metrics"
	"github.com/BaSui01/webqa/internal/tlsutil"
	"github.com/BaSui01/webqa/ledger"
	"github.com/BaSui01/webqa/oracle"
	"github.com/BaSui01/webqa/report"
	"github.com/BaSui01/webqa/types"
)

// DriverFactory builds a browser driver for one viewport.
type DriverFactory func(cfg config.BrowserConfig, rec *browser.Recorder, logger *zap.Logger) (browser.Driver, error)

// Runner executes scans. Zero-value fields fall back to production defaults,
// so tests can swap the driver factory, oracle and progress sink.
type Runner struct {
	Cfg     config.Config
	Logger  *zap.Logger
	Metrics *metrics.Collector

	// NewDriver defaults to the chromedp driver.
	NewDriver DriverFactory
	// Oracle overrides the config-built oracle client; leave nil to build
	// from Cfg.Oracle.
	Oracle oracle.Client
	// Progress receives human-readable scan progress lines.
	Progress io.Writer
}

// Result is the outcome of one scan.
type Result struct {
	RunID      string
	URL        string
	Scope      string
	StartedAt  time.Time
	Duration   time.Duration
	Bugs       []types.BugEntry
	Workflows  []types.WorkflowResult
	ReportPath string
	ZipPath    string
}

// runContext pins the identity and artifact locations of one scan. It is
// built once per run and never mutated.
type runContext struct {
	runID         string
	outputRoot    string
	screenshotDir string
	reportPath    string
}

func newRunContext(root string) *runContext {
	id := strings.Split(uuid.NewString(), "-")[0]
	outDir := filepath.Join(root, id)
	return &runContext{
		runID:         id,
		outputRoot:    outDir,
		screenshotDir: filepath.Join(outDir, "screenshots"),
		reportPath:    filepath.Join(outDir, "report.md"),
	}
}

// New builds a Runner with production wiring.
func New(cfg config.Config, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		Cfg:    cfg,
		Logger: logger.With(zap.String("component", "runner")),
	}
}

// Run executes one scan of url. It fails hard only when the browser cannot
// start or artifacts cannot be written; page-level trouble becomes bugs.
func (r *Runner) Run(ctx context.Context, url, scope string) (*Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	progress := r.Progress
	if progress == nil {
		progress = os.Stdout
	}
	factory := r.NewDriver
	if factory == nil {
		factory = func(cfg config.BrowserConfig, rec *browser.Recorder, l *zap.Logger) (browser.Driver, error) {
			return browser.New(cfg, rec, l)
		}
	}

	rc := newRunContext(r.Cfg.Output.Root)
	start := time.Now()
	if err := os.MkdirAll(rc.screenshotDir, 0o755); err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}

	logger.Info("scan starting", zap.String("run_id", rc.runID), zap.String("url", url), zap.String("scope", scope))
	fmt.Fprintf(progress, "[%s] scanning %s\n", rc.runID, url)

	rec := browser.NewRecorder()
	drv, err := factory(r.Cfg.Browser, rec, logger)
	if err != nil {
		return nil, types.WrapError(types.ErrBrowserStartup, "start browser", err)
	}
	defer drv.Close()

	eng := action.NewEngine(drv, rec, r.Cfg.Browser.ActionTimeout, logger)
	led := ledger.New(ledger.NewEvidence(drv, rc.screenshotDir, logger), logger)

	r.navigate(ctx, drv, led, url)
	eng.Stabilize(ctx, 500*time.Millisecond)

	snap := r.snapshot(ctx, drv, url, logger)

	env := &detect.Env{
		Snap:    snap,
		Drv:     drv,
		Engine:  eng,
		Rec:     rec,
		HTTP:    tlsutil.SecureHTTPClient(r.Cfg.Policy.LinkTimeout),
		Policy:  r.Cfg.Policy,
		Logger:  logger,
		PageURL: url,
		MobileSnapshot: func(ctx context.Context) (*browser.Snapshot, error) {
			return r.mobileSnapshot(ctx, factory, url, logger)
		},
	}

	fmt.Fprintf(progress, "[%s] running detectors\n", rc.runID)
	detect.RunAll(ctx, detect.Registry(), env, led)

	fmt.Fprintf(progress, "[%s] exercising workflows\n", rc.runID)
	session := explore.NewSession(drv, eng, rec, r.Cfg.Policy, url, logger)
	workflows := session.RunAll(ctx)

	if client := r.oracleClient(logger); client != nil {
		fmt.Fprintf(progress, "[%s] oracle-steered exploration\n", rc.runID)
		loop := agent.NewLoop(client, drv, eng, led, r.Cfg.Oracle, url, logger)
		workflows = append(workflows, loop.Run(ctx)...)
	}

	detect.RunAll(ctx, detect.Aggregates(), env, led)

	result := &Result{
		RunID:     rc.runID,
		URL:       url,
		Scope:     scope,
		StartedAt: start,
		Duration:  time.Since(start),
		Bugs:      led.Entries(),
		Workflows: workflows,
	}

	if _, err := report.Write(rc.outputRoot, report.Input{
		URL:             url,
		Scope:           scope,
		RunID:           rc.runID,
		StartedAt:       start,
		Duration:        result.Duration,
		Bugs:            result.Bugs,
		Workflows:       workflows,
		ConsoleErrors:   rec.ConsoleErrors(),
		ConsoleWarnings: rec.ConsoleWarnings(),
		Exceptions:      rec.Exceptions(),
		FailedRequests:  rec.FailedRequests(),
		MaxSignals:      r.Cfg.Policy.MaxDetails,
	}); err != nil {
		return nil, err
	}
	result.ReportPath = rc.reportPath

	if r.Cfg.Output.Zip {
		zipPath := rc.outputRoot + ".zip"
		if err := report.Pack(zipPath, rc.outputRoot); err != nil {
			logger.Warn("archive failed", zap.Error(err))
		} else {
			result.ZipPath = zipPath
		}
	}

	r.record(result)
	logger.Info("scan finished",
		zap.String("run_id", rc.runID),
		zap.Int("bugs", len(result.Bugs)),
		zap.Duration("duration", result.Duration))
	fmt.Fprintf(progress, "[%s] done: %d bug(s), report at %s\n", rc.runID, len(result.Bugs), result.ReportPath)

	return result, nil
}

// navigate loads the page. Failure is itself a finding, not a scan abort:
// the rest of the scan still runs against whatever did render.
func (r *Runner) navigate(ctx context.Context, drv browser.Driver, led *ledger.Ledger, url string) {
	status, err := drv.Navigate(ctx, url)
	switch {
	case err != nil:
		led.Add(ctx, ledger.Commit{
			Title:       "Page failed to load",
			Severity:    types.SeverityCritical,
			Category:    types.CategoryNavigation,
			Description: fmt.Sprintf("Navigation to %s failed: %v", url, err),
			Steps:       []string{fmt.Sprintf("Navigate to %s", url)},
		})
	case status >= 400:
		led.Add(ctx, ledger.Commit{
			Title:       fmt.Sprintf("Page responded with HTTP %d", status),
			Severity:    types.SeverityHigh,
			Category:    types.CategoryNavigation,
			Description: fmt.Sprintf("The document request for %s returned status %d.", url, status),
			Steps:       []string{fmt.Sprintf("Navigate to %s", url)},
		})
	}
}

// snapshot collects the page snapshot, degrading to an empty one so the
// pure detectors still run their structural checks.
func (r *Runner) snapshot(ctx context.Context, drv browser.Driver, url string, logger *zap.Logger) *browser.Snapshot {
	snap, err := browser.Collect(ctx, drv, r.Cfg.Policy)
	if err != nil {
		logger.Warn("snapshot collection failed", zap.Error(err))
		return &browser.Snapshot{URL: url}
	}
	return snap
}

// mobileSnapshot spins up a second browser at the mobile viewport, loads the
// same page and snapshots it.
func (r *Runner) mobileSnapshot(ctx context.Context, factory DriverFactory, url string, logger *zap.Logger) (*browser.Snapshot, error) {
	cfg := r.Cfg.Browser
	cfg.ViewportWidth = cfg.MobileWidth
	cfg.ViewportHeight = cfg.MobileHeight

	drv, err := factory(cfg, browser.NewRecorder(), logger)
	if err != nil {
		return nil, err
	}
	defer drv.Close()

	if _, err := drv.Navigate(ctx, url); err != nil {
		return nil, err
	}
	return browser.Collect(ctx, drv, r.Cfg.Policy)
}

func (r *Runner) oracleClient(logger *zap.Logger) oracle.Client {
	if r.Oracle != nil {
		return r.Oracle
	}
	if p := oracle.NewProvider(r.Cfg.Oracle, logger); p != nil {
		p.Metrics = r.Metrics
		return p
	}
	return nil
}

func (r *Runner) record(res *Result) {
	if r.Metrics == nil {
		return
	}
	r.Metrics.RecordScan("completed", res.Duration)
	for _, bug := range res.Bugs {
		r.Metrics.RecordBug(string(bug.Severity))
	}
	for _, wf := range res.Workflows {
		r.Metrics.RecordWorkflow(wf.Name, wf.Passed)
	}
}
