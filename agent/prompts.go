package agent

import (
	"fmt"
	"strings"

	"github.com/BaSui01/webqa/action"
)

const understandPrompt = `You are a senior QA engineer exploring a web page.
Look at the attached screenshot and describe in 3-5 sentences what this page
is for, what its primary interactive features are, and which user journeys a
QA engineer should exercise. Respond with plain text only.`

const planInstructions = `Decide the single next interaction to try, or report
that exploration is complete. Respond with one JSON object only:
{
  "action": "click" | "fill" | "hover" | "scroll" | "navigate" | "press_key" | "done",
  "selector": "<CSS selector for click/fill/hover>",
  "text": "<value for fill>",
  "url": "<absolute URL for navigate>",
  "key": "<Tab|Enter|Escape|Space for press_key>",
  "reasoning": "<one sentence>",
  "defects": [
    {"title": "...", "severity": "Low|Medium|High|Critical",
     "category": "...", "description": "..."}
  ]
}
The defects array lists real problems visible right now (broken UI, error
text, dead controls); leave it empty when the page looks healthy. Prefer
interactions you have not tried yet. Use "done" once the page's main
journeys are covered.`

const finalJudgePrompt = `Exploration is over. Review the attached full-page
screenshot one last time and report any remaining visible defects. Respond
with one JSON object: {"defects": [{"title": "...", "severity": "...",
"category": "...", "description": "..."}]} and nothing else.`

// judgePrompt assembles the post-action review prompt. The attached image is
// the page as it looked before the action.
func judgePrompt(desc string, out action.Outcome) string {
	var b strings.Builder
	b.WriteString("You are a senior QA engineer reviewing the consequence of one interaction.\n")
	b.WriteString("The attached screenshot shows the page BEFORE the action.\n\n")
	fmt.Fprintf(&b, "Action just performed: %s\n", desc)
	if !out.Ok {
		fmt.Fprintf(&b, "The action failed: %s\n", out.Reason)
	}
	if out.ErrorDelta > 0 {
		fmt.Fprintf(&b, "It raised %d new JS console error(s) or uncaught exception(s).\n", out.ErrorDelta)
	}
	b.WriteString(`
Judge whether the action revealed a defect (broken control, error state, dead
interaction, console fault with user impact). Respond with one JSON object:
{"defects": [{"title": "...", "severity": "Low|Medium|High|Critical",
"category": "...", "description": "..."}]} and nothing else; leave the array
empty when the behaviour looks correct.`)
	return b.String()
}

// planPrompt assembles the per-turn steering prompt with the initial page
// understanding and a bounded window of recent history.
func planPrompt(understanding, pageURL string, history []string, window int) string {
	var b strings.Builder
	b.WriteString("You are a senior QA engineer exploring a web page.\n\n")
	fmt.Fprintf(&b, "Page understanding:\n%s\n\n", understanding)
	fmt.Fprintf(&b, "Current URL: %s\n\n", pageURL)

	if len(history) > 0 {
		if window > 0 && len(history) > window {
			history = history[len(history)-window:]
		}
		b.WriteString("Recent actions (oldest first):\n")
		for _, h := range history {
			fmt.Fprintf(&b, "- %s\n", h)
		}
		b.WriteString("\n")
	}

	b.WriteString(planInstructions)
	return b.String()
}
