// Package action executes single UI interactions with bounded timeouts and
// swallowed-failure semantics. A fault in one action is converted into a
// negative Outcome instead of propagating, so one unreachable element can
// never abort a surrounding scan.
package action

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/webqa/browser"
)

// Kind enumerates the supported interaction kinds.
type Kind string

const (
	Click    Kind = "click"
	Fill     Kind = "fill"
	Hover    Kind = "hover"
	Scroll   Kind = "scroll"
	Navigate Kind = "navigate"
	PressKey Kind = "press_key"
)

// Request describes one interaction to perform.
type Request struct {
	Kind     Kind
	Selector string
	Value    string
	URL      string
	Key      string
	ToBottom bool
	Timeout  time.Duration // zero means the engine default
}

// Outcome is the result of one interaction. Ok is false for any fault; the
// Reason narrates what went wrong ("not visible", "click failed or blocked").
// ErrorDelta is the number of new console errors and uncaught exceptions
// observed during the action.
type Outcome struct {
	Ok         bool
	Reason     string
	ErrorDelta int
}

// Engine performs interactions against one driver.
type Engine struct {
	drv     browser.Driver
	rec     *browser.Recorder
	logger  *zap.Logger
	timeout time.Duration
}

// NewEngine creates an action engine. rec may be nil; error deltas are then
// always zero.
func NewEngine(drv browser.Driver, rec *browser.Recorder, timeout time.Duration, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Engine{
		drv:     drv,
		rec:     rec,
		logger:  logger.With(zap.String("component", "action_engine")),
		timeout: timeout,
	}
}

// Perform executes one interaction. It never returns an error and never
// panics outward; every fault becomes a negative Outcome.
func (e *Engine) Perform(ctx context.Context, req Request) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Ok: false, Reason: fmt.Sprintf("%s panicked: %v", req.Kind, r)}
		}
	}()

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = e.timeout
	}

	before := e.errorCount()
	err := e.dispatch(ctx, req, timeout)
	delta := e.errorCount() - before

	if err != nil {
		reason := e.describe(req, err)
		e.logger.Debug("action failed",
			zap.String("kind", string(req.Kind)),
			zap.String("selector", req.Selector),
			zap.String("reason", reason))
		return Outcome{Ok: false, Reason: reason, ErrorDelta: delta}
	}
	return Outcome{Ok: true, ErrorDelta: delta}
}

func (e *Engine) dispatch(ctx context.Context, req Request, timeout time.Duration) error {
	switch req.Kind {
	case Click:
		return e.drv.Click(ctx, req.Selector, timeout)
	case Fill:
		return e.drv.Fill(ctx, req.Selector, req.Value, timeout)
	case Hover:
		return e.drv.Hover(ctx, req.Selector, timeout)
	case Scroll:
		return e.drv.Scroll(ctx, req.ToBottom)
	case Navigate:
		_, err := e.drv.Navigate(ctx, req.URL)
		return err
	case PressKey:
		return e.drv.Press(ctx, req.Key)
	default:
		return fmt.Errorf("unsupported action kind %q", req.Kind)
	}
}

func (e *Engine) describe(req Request, err error) string {
	switch req.Kind {
	case Click:
		if isTimeout(err) {
			return fmt.Sprintf("%s not visible", req.Selector)
		}
		return fmt.Sprintf("click on %s failed or blocked: %v", req.Selector, err)
	case Fill:
		return fmt.Sprintf("fill of %s failed: %v", req.Selector, err)
	case Hover:
		return fmt.Sprintf("hover on %s failed: %v", req.Selector, err)
	case Navigate:
		return fmt.Sprintf("navigation to %s failed: %v", req.URL, err)
	case PressKey:
		return fmt.Sprintf("key %s failed: %v", req.Key, err)
	default:
		return err.Error()
	}
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

func (e *Engine) errorCount() int {
	if e.rec == nil {
		return 0
	}
	return e.rec.ErrorCount()
}

// Stabilize waits a fixed delay plus a double-frame yield so animations and
// layout settle before the next observation.
func (e *Engine) Stabilize(ctx context.Context, d time.Duration) {
	if d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return
		}
	}
	// two requestAnimationFrame turns; failure here is not observable state
	_ = e.drv.Evaluate(ctx, `new Promise(r => requestAnimationFrame(() => requestAnimationFrame(() => r(true))))`, nil)
}
