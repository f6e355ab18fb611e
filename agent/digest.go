package agent

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/BaSui01/webqa/browser"
)

// digestTags are the elements worth surfacing in the page outline.
var digestTags = map[string]bool{
	"h1": true, "h2": true, "h3": true,
	"a": true, "button": true, "form": true,
	"input": true, "select": true, "textarea": true,
	"nav": true, "main": true, "dialog": true,
}

// domDigest renders a compact outline of the page's headings and interactive
// elements for the comprehension prompt. Any failure degrades to an empty
// digest; the screenshot still carries the page.
func domDigest(ctx context.Context, drv browser.Driver, maxLines int) string {
	var raw string
	if err := drv.Evaluate(ctx, "document.documentElement.outerHTML", &raw); err != nil || raw == "" {
		return ""
	}
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return ""
	}

	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if len(lines) >= maxLines {
			return
		}
		if n.Type == html.ElementNode && digestTags[n.Data] {
			lines = append(lines, describeElement(n))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return strings.Join(lines, "\n")
}

func describeElement(n *html.Node) string {
	var b strings.Builder
	b.WriteString(n.Data)
	for _, a := range n.Attr {
		switch a.Key {
		case "id":
			fmt.Fprintf(&b, "#%s", a.Val)
		case "type", "name", "placeholder", "href", "aria-label":
			fmt.Fprintf(&b, " %s=%q", a.Key, clip(a.Val, 60))
		}
	}
	if t := elementText(n); t != "" {
		fmt.Fprintf(&b, " %q", clip(t, 60))
	}
	return b.String()
}

// elementText joins the element's immediate text children.
func elementText(n *html.Node) string {
	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			if t := strings.TrimSpace(c.Data); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, " ")
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
