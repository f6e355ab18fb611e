// Package explore runs the deterministic exploration workflows: bounded
// heuristic scripts that discover candidate targets, perform one action each
// through the action engine, observe a workflow-specific success predicate,
// and record a WorkflowResult. Faults never abort the surrounding pass.
package explore

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/webqa/action"
	"github.com/BaSui01/webqa/browser"
	"github.com/BaSui01/webqa/config"
	"github.com/BaSui01/webqa/types"
)

// Session shares the run's driver and engine across the workflows.
type Session struct {
	Drv     browser.Driver
	Eng     *action.Engine
	Rec     *browser.Recorder
	Policy  config.Policy
	Logger  *zap.Logger
	BaseURL string

	results []types.WorkflowResult
}

// NewSession creates an exploration session.
func NewSession(drv browser.Driver, eng *action.Engine, rec *browser.Recorder, policy config.Policy, baseURL string, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		Drv:     drv,
		Eng:     eng,
		Rec:     rec,
		Policy:  policy,
		Logger:  logger.With(zap.String("component", "explore")),
		BaseURL: baseURL,
	}
}

// workflow is one bounded heuristic script.
type workflow struct {
	name string
	run  func(ctx context.Context, s *Session) types.WorkflowResult
}

// workflows execute in this fixed order within one run.
func workflows() []workflow {
	return []workflow{
		{name: "site-crawler", run: runCrawler},
		{name: "form-tester", run: runForms},
		{name: "modal-tester", run: runModals},
		{name: "dropdown-tab-tester", run: runDropdowns},
		{name: "connect-flow-tester", run: runConnectFlow},
		{name: "navigation-tester", run: runNavigation},
		{name: "hover-tester", run: runHover},
		{name: "keyboard-tester", run: runKeyboard},
		{name: "scroll-tester", run: runScroll},
	}
}

// RunAll executes every workflow and returns the accumulated results.
func (s *Session) RunAll(ctx context.Context) []types.WorkflowResult {
	for _, wf := range workflows() {
		s.Logger.Info("running workflow", zap.String("workflow", wf.name))
		res := s.guarded(ctx, wf)
		s.results = append(s.results, res)
		s.Logger.Info("workflow finished",
			zap.String("workflow", wf.name),
			zap.Bool("passed", res.Passed),
			zap.Int("steps", len(res.Steps)))
	}
	return s.Results()
}

func (s *Session) guarded(ctx context.Context, wf workflow) (res types.WorkflowResult) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("workflow panicked", zap.String("workflow", wf.name), zap.Any("panic", r))
			res = types.WorkflowResult{Name: wf.name, Passed: false, Error: "workflow aborted internally"}
		}
	}()
	return wf.run(ctx, s)
}

// Results returns a copy of the recorded workflow results.
func (s *Session) Results() []types.WorkflowResult {
	return append([]types.WorkflowResult(nil), s.results...)
}

// settle waits for animations and layout between an action and its check.
func (s *Session) settle(ctx context.Context) {
	s.Eng.Stabilize(ctx, 400*time.Millisecond)
}

// verdict builds the common result shape: passed when no issues accumulated.
func verdict(name string, steps []types.WorkflowStep, issues []string) types.WorkflowResult {
	res := types.WorkflowResult{Name: name, Steps: steps, Passed: len(issues) == 0}
	if len(issues) > 0 {
		res.Error = strings.Join(issues, "; ")
	}
	return res
}

// step appends one narrated workflow step.
func step(steps []types.WorkflowStep, actionName, target, value, expect string) []types.WorkflowStep {
	return append(steps, types.WorkflowStep{Action: actionName, Target: target, Value: value, Expect: expect})
}
