package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/BaSui01/webqa/config"
)

// Chrome is a chromedp-backed Driver driving one page serially.
type Chrome struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	cfg         config.BrowserConfig
	logger      *zap.Logger
	mu          sync.Mutex
}

// keyMap translates symbolic key names to CDP key runes.
var keyMap = map[string]string{
	"Tab":    kb.Tab,
	"Enter":  kb.Enter,
	"Escape": kb.Escape,
	"Space":  " ",
}

// New starts a browser and wires page runtime/network events into rec.
// rec may be nil when no signal accumulation is needed.
func New(cfg config.BrowserConfig, rec *Recorder, logger *zap.Logger) (*Chrome, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.WindowSize(cfg.ViewportWidth, cfg.ViewportHeight),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		}),
	)

	d := &Chrome{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		ctx:         ctx,
		cancel:      cancel,
		cfg:         cfg,
		logger:      logger.With(zap.String("component", "chrome_driver")),
	}

	if rec != nil {
		chromedp.ListenTarget(ctx, func(ev any) {
			switch e := ev.(type) {
			case *runtime.EventConsoleAPICalled:
				rec.AddConsole(string(e.Type), consoleText(e))
			case *runtime.EventExceptionThrown:
				rec.AddException(exceptionText(e.ExceptionDetails))
			case *network.EventRequestWillBeSent:
				rec.TrackRequest(e.RequestID, e.Request.URL, e.Request.Method, string(e.Type))
			case *network.EventResponseReceived:
				rec.AddResponse(e.RequestID, int(e.Response.Status))
			case *network.EventLoadingFailed:
				rec.AddLoadingFailure(e.RequestID, e.ErrorText, e.Canceled)
			}
		})
	}

	if err := chromedp.Run(ctx, network.Enable()); err != nil {
		allocCancel()
		cancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	d.logger.Info("browser started",
		zap.Bool("headless", cfg.Headless),
		zap.Int("viewport_w", cfg.ViewportWidth),
		zap.Int("viewport_h", cfg.ViewportHeight))

	return d, nil
}

func consoleText(e *runtime.EventConsoleAPICalled) string {
	var parts []string
	for _, arg := range e.Args {
		if arg.Value != nil {
			parts = append(parts, string(arg.Value))
		} else if arg.Description != "" {
			parts = append(parts, arg.Description)
		}
	}
	if len(parts) == 0 {
		return string(e.Type)
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += " " + p
	}
	return out
}

func exceptionText(d *runtime.ExceptionDetails) string {
	if d == nil {
		return "uncaught exception"
	}
	if d.Exception != nil && d.Exception.Description != "" {
		return d.Exception.Description
	}
	return d.Text
}

// Navigate loads the URL and returns the main document HTTP status.
func (d *Chrome) Navigate(ctx context.Context, url string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	tctx, cancel := context.WithTimeout(d.ctx, d.cfg.NavigationTimeout)
	defer cancel()

	d.logger.Debug("navigating", zap.String("url", url))
	resp, err := chromedp.RunResponse(tctx, chromedp.Navigate(url))
	if err != nil {
		return 0, err
	}
	if resp == nil {
		return 0, nil
	}
	return int(resp.Status), nil
}

// NavigateBack returns to the previous history entry.
func (d *Chrome) NavigateBack(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tctx, cancel := context.WithTimeout(d.ctx, d.cfg.NavigationTimeout)
	defer cancel()
	return chromedp.Run(tctx, chromedp.NavigateBack())
}

// Evaluate runs a JavaScript expression and unmarshals the result into out.
func (d *Chrome) Evaluate(ctx context.Context, expr string, out any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tctx, cancel := context.WithTimeout(d.ctx, d.cfg.NavigationTimeout)
	defer cancel()
	if out == nil {
		var discard any
		return chromedp.Run(tctx, chromedp.Evaluate(expr, &discard))
	}
	return chromedp.Run(tctx, chromedp.Evaluate(expr, out))
}

// Screenshot captures the page as PNG bytes.
func (d *Chrome) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	tctx, cancel := context.WithTimeout(d.ctx, d.cfg.NavigationTimeout)
	defer cancel()

	var buf []byte
	var act chromedp.Action
	if fullPage {
		act = chromedp.FullScreenshot(&buf, 90)
	} else {
		act = chromedp.CaptureScreenshot(&buf)
	}
	if err := chromedp.Run(tctx, act); err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return buf, nil
}

// Click clicks the first element matched by the selector.
func (d *Chrome) Click(ctx context.Context, selector string, timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tctx, cancel := context.WithTimeout(d.ctx, timeout)
	defer cancel()
	return chromedp.Run(tctx, chromedp.Click(selector, chromedp.ByQuery))
}

// Fill clears and types into the first element matched by the selector.
func (d *Chrome) Fill(ctx context.Context, selector, value string, timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tctx, cancel := context.WithTimeout(d.ctx, timeout)
	defer cancel()
	return chromedp.Run(tctx,
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
}

// Hover dispatches pointer-over events on the matched element. The CDP has no
// first-class hover, so the events are synthesized in page context.
func (d *Chrome) Hover(ctx context.Context, selector string, timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tctx, cancel := context.WithTimeout(d.ctx, timeout)
	defer cancel()

	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) throw new Error("no element");
		for (const type of ["pointerover", "mouseover", "mouseenter"]) {
			el.dispatchEvent(new MouseEvent(type, {bubbles: true, cancelable: true}));
		}
		return true;
	})()`, selector)
	var ok bool
	return chromedp.Run(tctx, chromedp.Evaluate(expr, &ok))
}

// Press sends one keyboard key.
func (d *Chrome) Press(ctx context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tctx, cancel := context.WithTimeout(d.ctx, d.cfg.ActionTimeout)
	defer cancel()

	k, ok := keyMap[key]
	if !ok {
		k = key
	}
	return chromedp.Run(tctx, chromedp.KeyEvent(k))
}

// Scroll scrolls the window to the bottom or back to the top.
func (d *Chrome) Scroll(ctx context.Context, toBottom bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tctx, cancel := context.WithTimeout(d.ctx, d.cfg.ActionTimeout)
	defer cancel()

	expr := `window.scrollTo({top: 0, behavior: "instant"}); true`
	if toBottom {
		expr = `window.scrollTo({top: document.body.scrollHeight, behavior: "instant"}); true`
	}
	var ok bool
	return chromedp.Run(tctx, chromedp.Evaluate(expr, &ok))
}

// Location returns the current page URL.
func (d *Chrome) Location(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var url string
	if err := chromedp.Run(d.ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to get URL: %w", err)
	}
	return url, nil
}

// Close shuts the browser down.
func (d *Chrome) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.logger.Info("closing browser")
	d.cancel()
	d.allocCancel()
	return nil
}
