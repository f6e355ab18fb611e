// Package report renders the final scan report. Rendering is a pure function
// of its input: the same input always yields byte-identical markdown, which
// keeps reports diffable across reruns.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BaSui01/webqa/types"
)

// Input is everything a report is built from. Timestamps are supplied by the
// caller; Render never consults a clock.
type Input struct {
	URL       string
	Scope     string
	RunID     string
	StartedAt time.Time
	Duration  time.Duration

	Bugs      []types.BugEntry
	Workflows []types.WorkflowResult

	ConsoleErrors   []string
	ConsoleWarnings []string
	Exceptions      []string
	FailedRequests  []types.FailedRequest

	// MaxSignals bounds each runtime-signal list; zero means 20.
	MaxSignals int
}

// Render builds the report markdown.
func Render(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# QA Scan Report: %s\n\n", in.URL)
	fmt.Fprintf(&b, "- Run: `%s`\n", in.RunID)
	if in.Scope != "" {
		fmt.Fprintf(&b, "- Scope: %s\n", in.Scope)
	}
	fmt.Fprintf(&b, "- Started: %s\n", in.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Duration: %s\n\n", in.Duration.Round(time.Second))

	writeSummary(&b, in)
	writeBugs(&b, in.Bugs)
	writeWorkflows(&b, in.Workflows)
	writeSignals(&b, in)

	return b.String()
}

func writeSummary(b *strings.Builder, in Input) {
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(b, "%d bug(s) found.\n\n", len(in.Bugs))

	bySeverity := map[types.Severity]int{}
	byCategory := map[types.Category]int{}
	for _, bug := range in.Bugs {
		bySeverity[bug.Severity]++
		byCategory[bug.Category]++
	}

	b.WriteString("| Severity | Count |\n|---|---|\n")
	for _, sev := range types.SeverityOrder {
		fmt.Fprintf(b, "| %s | %d |\n", sev, bySeverity[sev])
	}
	b.WriteString("\n")

	if len(byCategory) > 0 {
		cats := make([]string, 0, len(byCategory))
		for c := range byCategory {
			cats = append(cats, string(c))
		}
		sort.Strings(cats)
		b.WriteString("| Category | Count |\n|---|---|\n")
		for _, c := range cats {
			fmt.Fprintf(b, "| %s | %d |\n", c, byCategory[types.Category(c)])
		}
		b.WriteString("\n")
	}

	passed, failed := 0, 0
	for _, wf := range in.Workflows {
		if wf.Passed {
			passed++
		} else {
			failed++
		}
	}
	if passed+failed > 0 {
		fmt.Fprintf(b, "Workflows: %d passed, %d failed.\n\n", passed, failed)
	}
}

func writeBugs(b *strings.Builder, bugs []types.BugEntry) {
	if len(bugs) == 0 {
		return
	}
	b.WriteString("## Bugs\n\n")

	ordered := append([]types.BugEntry(nil), bugs...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Severity.Rank() > ordered[j].Severity.Rank()
	})

	for _, bug := range ordered {
		fmt.Fprintf(b, "### %s: %s\n\n", bug.ID, bug.Title)
		fmt.Fprintf(b, "- Severity: %s\n", bug.Severity)
		fmt.Fprintf(b, "- Category: %s\n", bug.Category)
		for _, ev := range bug.Evidence {
			fmt.Fprintf(b, "- Evidence: [%s](%s)\n", ev, ev)
		}
		b.WriteString("\n")
		if bug.Description != "" {
			b.WriteString(bug.Description)
			b.WriteString("\n\n")
		}
		if len(bug.Steps) > 0 {
			b.WriteString("Steps to reproduce:\n\n")
			for i, step := range bug.Steps {
				fmt.Fprintf(b, "%d. %s\n", i+1, step)
			}
			b.WriteString("\n")
		}
		if len(bug.Details) > 0 {
			b.WriteString("Details:\n\n")
			for _, d := range bug.Details {
				fmt.Fprintf(b, "- %s\n", d)
			}
			b.WriteString("\n")
		}
	}
}

func writeWorkflows(b *strings.Builder, workflows []types.WorkflowResult) {
	if len(workflows) == 0 {
		return
	}
	b.WriteString("## Workflows\n\n")
	for _, wf := range workflows {
		status := "PASS"
		if !wf.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(b, "### %s — %s\n\n", wf.Name, status)
		if wf.Error != "" {
			fmt.Fprintf(b, "%s\n\n", wf.Error)
		}
		if len(wf.Steps) == 0 {
			b.WriteString("No steps recorded.\n\n")
			continue
		}
		for i, step := range wf.Steps {
			line := fmt.Sprintf("%d. %s %s", i+1, step.Action, step.Target)
			if step.Value != "" {
				line += fmt.Sprintf(" = %q", step.Value)
			}
			if step.Expect != "" {
				line += " — " + step.Expect
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
}

func writeSignals(b *strings.Builder, in Input) {
	limit := in.MaxSignals
	if limit <= 0 {
		limit = 20
	}

	hasSignals := len(in.ConsoleErrors)+len(in.ConsoleWarnings)+len(in.Exceptions) > 0
	if hasSignals {
		b.WriteString("## Runtime Signals\n\n")
		writeSignalList(b, "Uncaught exceptions", in.Exceptions, limit)
		writeSignalList(b, "Console errors", in.ConsoleErrors, limit)
		writeSignalList(b, "Console warnings", in.ConsoleWarnings, limit)
	}

	if len(in.FailedRequests) > 0 {
		b.WriteString("## Failed Requests\n\n")
		b.WriteString("| Method | URL | Type | Result |\n|---|---|---|---|\n")
		for i, fr := range in.FailedRequests {
			if i == limit {
				fmt.Fprintf(b, "\n…and %d more.\n", len(in.FailedRequests)-limit)
				break
			}
			result := fr.Failure
			if fr.Status > 0 {
				result = fmt.Sprintf("HTTP %d", fr.Status)
			}
			fmt.Fprintf(b, "| %s | %s | %s | %s |\n", fr.Method, fr.URL, fr.ResourceType, result)
		}
		b.WriteString("\n")
	}
}

func writeSignalList(b *strings.Builder, title string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s (%d)\n\n", title, len(items))
	for i, item := range items {
		if i == limit {
			fmt.Fprintf(b, "- …and %d more.\n", len(items)-limit)
			break
		}
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}
