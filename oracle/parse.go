package oracle

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Plan is one steering decision extracted from a model reply. A zero Action
// means the model (or the parser) decided the session is done.
type Plan struct {
	Action    string
	Selector  string
	Text      string
	Value     string
	URL       string
	Key       string
	Reasoning string
}

// Done reports whether the plan terminates the session.
func (p Plan) Done() bool { return p.Action == "" || p.Action == "done" }

// Defect is one model-reported finding, before severity/category coercion.
type Defect struct {
	Title       string
	Severity    string
	Category    string
	Description string
}

// stripFences removes a markdown code fence around a JSON payload. Models
// wrap JSON in ```json fences often enough that strict parsing is useless.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.Index(s, "\n"); i >= 0 {
			s = s[i+1:]
		}
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

// firstObject returns the first JSON object or array embedded in s, tolerating
// leading prose before the payload.
func firstObject(s string) string {
	obj := strings.IndexAny(s, "{[")
	if obj < 0 {
		return ""
	}
	return s[obj:]
}

// ParsePlan extracts a steering decision from a raw model reply. Any reply
// that does not contain a recognizable action parses as a done plan: a
// confused oracle must never wedge the loop.
func ParsePlan(raw string) Plan {
	payload := firstObject(stripFences(raw))
	if payload == "" || !gjson.Valid(payload) {
		return Plan{Action: "done", Reasoning: "unparseable oracle reply"}
	}
	v := gjson.Parse(payload)
	plan := Plan{
		Action:    strings.ToLower(strings.TrimSpace(v.Get("action").String())),
		Selector:  v.Get("selector").String(),
		Text:      v.Get("text").String(),
		Value:     v.Get("value").String(),
		URL:       v.Get("url").String(),
		Key:       v.Get("key").String(),
		Reasoning: v.Get("reasoning").String(),
	}
	if plan.Text == "" {
		plan.Text = plan.Value
	}
	return plan
}

// ParseDefects extracts model-reported findings from a raw reply. It accepts
// either a bare array or an object with a "defects"/"bugs" field; anything
// else yields no findings.
func ParseDefects(raw string) []Defect {
	payload := firstObject(stripFences(raw))
	if payload == "" || !gjson.Valid(payload) {
		return nil
	}
	v := gjson.Parse(payload)
	list := v
	if !v.IsArray() {
		for _, field := range []string{"defects", "bugs", "findings"} {
			if arr := v.Get(field); arr.IsArray() {
				list = arr
				break
			}
		}
	}
	if !list.IsArray() {
		return nil
	}

	var out []Defect
	list.ForEach(func(_, item gjson.Result) bool {
		d := Defect{
			Title:       strings.TrimSpace(item.Get("title").String()),
			Severity:    item.Get("severity").String(),
			Category:    item.Get("category").String(),
			Description: item.Get("description").String(),
		}
		if d.Title == "" {
			d.Title = strings.TrimSpace(item.Get("summary").String())
		}
		if d.Title != "" {
			out = append(out, d)
		}
		return true
	})
	return out
}
