package browser

import (
	"context"
	"time"
)

// Driver is the abstract browser surface the scanner drives.
// Every call is individually fallible; callers never assume success.
type Driver interface {
	// Navigate loads a URL and returns the main document HTTP status.
	// A zero status means no response was observed (e.g. about:blank).
	Navigate(ctx context.Context, url string) (int, error)

	// NavigateBack returns to the previous history entry.
	NavigateBack(ctx context.Context) error

	// Evaluate runs a JavaScript expression and unmarshals the result into out.
	// Pass nil to discard the result.
	Evaluate(ctx context.Context, expr string, out any) error

	// Screenshot captures the page as PNG bytes.
	Screenshot(ctx context.Context, fullPage bool) ([]byte, error)

	// Click clicks the first element matched by the selector.
	Click(ctx context.Context, selector string, timeout time.Duration) error

	// Fill clears and types into the first element matched by the selector.
	Fill(ctx context.Context, selector, value string, timeout time.Duration) error

	// Hover dispatches pointer-over events on the matched element.
	Hover(ctx context.Context, selector string, timeout time.Duration) error

	// Press sends one keyboard key (e.g. "Tab", "Escape", "Enter").
	Press(ctx context.Context, key string) error

	// Scroll scrolls the window to the bottom or back to the top.
	Scroll(ctx context.Context, toBottom bool) error

	// Location returns the current page URL.
	Location(ctx context.Context) (string, error)

	// Close releases the underlying browser.
	Close() error
}
