package agent

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/webqa/action"
	"github.com/BaSui01/webqa/browser"
	"github.com/BaSui01/webqa/config"
	"github.com/BaSui01/webqa/ledger"
	"github.com/BaSui01/webqa/oracle"
	"github.com/BaSui01/webqa/types"
)

// Loop drives oracle-steered exploration of one page. A nil oracle client
// turns Run into a no-op that reports nothing.
type Loop struct {
	Oracle oracle.Client
	Drv    browser.Driver
	Eng    *action.Engine
	Ledger *ledger.Ledger
	Cfg    config.OracleConfig
	Logger *zap.Logger

	BaseURL string

	history  []string
	reported map[string]bool
}

// NewLoop wires a steered-exploration loop.
func NewLoop(client oracle.Client, drv browser.Driver, eng *action.Engine, led *ledger.Ledger, cfg config.OracleConfig, baseURL string, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		Oracle:   client,
		Drv:      drv,
		Eng:      eng,
		Ledger:   led,
		Cfg:      cfg,
		BaseURL:  baseURL,
		Logger:   logger.With(zap.String("component", "agent")),
		reported: make(map[string]bool),
	}
}

// Run executes the loop and returns its trace as a workflow result. Without
// an oracle it returns an empty slice and commits no bugs.
func (l *Loop) Run(ctx context.Context) []types.WorkflowResult {
	if l.Oracle == nil {
		return nil
	}

	const name = "oracle-steered-exploration"
	maxTurns := l.Cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 20
	}

	var steps []types.WorkflowStep
	var issues []string
	defects := 0

	understanding := l.understand(ctx)

	doneStreak := 0
	for turn := 0; turn < maxTurns; turn++ {
		if ctx.Err() != nil {
			issues = append(issues, "exploration cancelled")
			break
		}

		before := l.screenshot(ctx)
		reply, err := l.Oracle.Complete(ctx, planPrompt(understanding, l.currentURL(ctx), l.history, l.Cfg.History), before)
		if err != nil {
			l.Logger.Warn("oracle plan call failed", zap.Int("turn", turn), zap.Error(err))
			issues = append(issues, fmt.Sprintf("oracle unavailable after %d turn(s): %v", turn, err))
			break
		}

		defects += l.collectDefects(ctx, oracle.ParseDefects(reply))

		plan := oracle.ParsePlan(reply)
		if plan.Done() {
			doneStreak++
			l.Logger.Debug("oracle signalled done", zap.Int("streak", doneStreak))
			if doneStreak >= 2 {
				break
			}
			continue
		}
		doneStreak = 0

		steps = append(steps, types.WorkflowStep{
			Action: plan.Action,
			Target: l.planTarget(plan),
			Value:  plan.Text,
			Expect: plan.Reasoning,
		})

		out := l.act(ctx, plan)
		l.observe(ctx)

		desc := fmt.Sprintf("%s %s", plan.Action, l.planTarget(plan))
		record := fmt.Sprintf("turn %d: %s", turn+1, desc)
		if !out.Ok {
			record += " (failed: " + out.Reason + ")"
		} else if out.ErrorDelta > 0 {
			record += fmt.Sprintf(" (raised %d JS error(s))", out.ErrorDelta)
		}
		l.history = append(l.history, record)

		if out.ErrorDelta > 0 {
			issues = append(issues, fmt.Sprintf("%s raised %d JS error(s)", desc, out.ErrorDelta))
		}

		defects += l.judge(ctx, before, desc, out)
	}

	defects += l.finalJudge(ctx)
	if defects > 0 {
		issues = append(issues, fmt.Sprintf("oracle reported %d defect(s)", defects))
	}

	return []types.WorkflowResult{{
		Name:   name,
		Steps:  steps,
		Passed: len(issues) == 0,
		Error:  strings.Join(issues, "; "),
	}}
}

// understand performs the one-off page comprehension call. Failure degrades
// to an empty understanding rather than aborting the loop.
func (l *Loop) understand(ctx context.Context) string {
	prompt := understandPrompt
	if digest := domDigest(ctx, l.Drv, 80); digest != "" {
		prompt += "\n\nPage structure outline:\n" + digest
	}
	text, err := l.Oracle.Complete(ctx, prompt, l.screenshot(ctx))
	if err != nil {
		l.Logger.Warn("oracle understand call failed", zap.Error(err))
		return "(no page understanding available)"
	}
	return strings.TrimSpace(text)
}

// act maps a parsed plan onto the action engine. Unknown actions fail softly.
func (l *Loop) act(ctx context.Context, plan oracle.Plan) action.Outcome {
	switch plan.Action {
	case "click":
		return l.Eng.Perform(ctx, action.Request{Kind: action.Click, Selector: plan.Selector})
	case "fill":
		return l.Eng.Perform(ctx, action.Request{Kind: action.Fill, Selector: plan.Selector, Value: plan.Text})
	case "hover":
		return l.Eng.Perform(ctx, action.Request{Kind: action.Hover, Selector: plan.Selector})
	case "scroll":
		return l.Eng.Perform(ctx, action.Request{Kind: action.Scroll, ToBottom: true})
	case "navigate":
		if !sameOrigin(l.BaseURL, plan.URL) {
			return action.Outcome{Ok: false, Reason: fmt.Sprintf("refused off-origin navigation to %s", plan.URL)}
		}
		return l.Eng.Perform(ctx, action.Request{Kind: action.Navigate, URL: plan.URL})
	case "press_key":
		return l.Eng.Perform(ctx, action.Request{Kind: action.PressKey, Key: plan.Key})
	default:
		return action.Outcome{Ok: false, Reason: fmt.Sprintf("unknown oracle action %q", plan.Action)}
	}
}

// observe settles the page and forces a return to the scan origin if an
// action navigated away from it.
func (l *Loop) observe(ctx context.Context) {
	l.Eng.Stabilize(ctx, 0)
	cur := l.currentURL(ctx)
	if cur != "" && !sameOrigin(l.BaseURL, cur) {
		l.Logger.Info("left scan origin, returning", zap.String("url", cur))
		l.Eng.Perform(ctx, action.Request{Kind: action.Navigate, URL: l.BaseURL})
	}
}

// judge asks the oracle to review the consequence of one action against the
// before-action screenshot. Failure degrades to zero findings.
func (l *Loop) judge(ctx context.Context, before []byte, desc string, out action.Outcome) int {
	reply, err := l.Oracle.Complete(ctx, judgePrompt(desc, out), before)
	if err != nil {
		l.Logger.Warn("oracle judge call failed", zap.Error(err))
		return 0
	}
	return l.collectDefects(ctx, oracle.ParseDefects(reply))
}

// finalJudge runs the concluding defect review over a full-page screenshot.
func (l *Loop) finalJudge(ctx context.Context) int {
	shot, err := l.Drv.Screenshot(ctx, true)
	if err != nil {
		l.Logger.Warn("final screenshot failed", zap.Error(err))
		shot = nil
	}
	reply, err := l.Oracle.Complete(ctx, finalJudgePrompt, shot)
	if err != nil {
		l.Logger.Warn("oracle final judge call failed", zap.Error(err))
		return 0
	}
	return l.collectDefects(ctx, oracle.ParseDefects(reply))
}

// collectDefects coerces and commits oracle-reported findings, deduplicating
// by title across the whole session. It returns the number committed.
func (l *Loop) collectDefects(ctx context.Context, defects []oracle.Defect) int {
	committed := 0
	for _, d := range defects {
		key := strings.ToLower(d.Title)
		if l.reported[key] {
			continue
		}
		l.reported[key] = true
		committed++

		l.Ledger.Add(ctx, ledger.Commit{
			Title:       "[AI] " + d.Title,
			Severity:    types.ParseSeverity(d.Severity),
			Category:    types.ParseCategory(d.Category),
			Description: d.Description,
			Steps:       []string{"Reported by the exploration oracle while steering the session"},
		})
	}
	return committed
}

func (l *Loop) planTarget(plan oracle.Plan) string {
	switch plan.Action {
	case "navigate":
		return plan.URL
	case "press_key":
		return plan.Key
	case "scroll":
		return "page"
	default:
		return plan.Selector
	}
}

func (l *Loop) currentURL(ctx context.Context) string {
	u, err := l.Drv.Location(ctx)
	if err != nil {
		return ""
	}
	return u
}

func (l *Loop) screenshot(ctx context.Context) []byte {
	shot, err := l.Drv.Screenshot(ctx, false)
	if err != nil {
		l.Logger.Debug("screenshot failed", zap.Error(err))
		return nil
	}
	return shot
}

// sameOrigin compares scheme and host, treating unparseable URLs as foreign.
func sameOrigin(base, candidate string) bool {
	b, err := url.Parse(base)
	if err != nil {
		return false
	}
	c, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	return b.Scheme == c.Scheme && b.Host == c.Host
}
