// Package testutil provides shared test doubles for the scanner packages,
// chiefly a scriptable in-memory browser driver so detectors, workflows, and
// the exploration loop can be tested without Chrome.
package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Call records one driver invocation for assertions.
type Call struct {
	Method   string
	Selector string
	Value    string
}

// FakeDriver is a scriptable browser.Driver implementation.
//
// Evaluate results are scripted per-substring: the first registered script
// whose key is contained in the evaluated expression supplies the result.
// Errors can be injected per method name.
type FakeDriver struct {
	mu sync.Mutex

	URL       string
	NavStatus int
	ShotData  []byte

	scripts map[string]any
	fail    map[string]error
	calls   []Call
}

// NewFakeDriver creates a fake driver with benign defaults.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{
		URL:       "https://example.com/",
		NavStatus: 200,
		ShotData:  []byte("png"),
		scripts:   make(map[string]any),
		fail:      make(map[string]error),
	}
}

// Script registers an Evaluate result for expressions containing key.
func (f *FakeDriver) Script(key string, result any) *FakeDriver {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[key] = result
	return f
}

// FailWith injects an error for the named method ("Click", "Navigate", ...).
func (f *FakeDriver) FailWith(method string, err error) *FakeDriver {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[method] = err
	return f
}

// Calls returns a copy of the recorded invocations.
func (f *FakeDriver) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns how many times the named method was invoked.
func (f *FakeDriver) CallsTo(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (f *FakeDriver) record(method, selector, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: method, Selector: selector, Value: value})
	return f.fail[method]
}

// Navigate implements browser.Driver.
func (f *FakeDriver) Navigate(ctx context.Context, url string) (int, error) {
	if err := f.record("Navigate", "", url); err != nil {
		return 0, err
	}
	f.mu.Lock()
	f.URL = url
	f.mu.Unlock()
	return f.NavStatus, nil
}

// NavigateBack implements browser.Driver.
func (f *FakeDriver) NavigateBack(ctx context.Context) error {
	return f.record("NavigateBack", "", "")
}

// Evaluate implements browser.Driver.
func (f *FakeDriver) Evaluate(ctx context.Context, expr string, out any) error {
	if err := f.record("Evaluate", "", expr); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, result := range f.scripts {
		if key != "" && strings.Contains(expr, key) {
			data, err := json.Marshal(result)
			if err != nil {
				return err
			}
			return json.Unmarshal(data, out)
		}
	}
	return errors.New("no scripted result for expression")
}

// Screenshot implements browser.Driver.
func (f *FakeDriver) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	if err := f.record("Screenshot", "", fmt.Sprintf("full=%v", fullPage)); err != nil {
		return nil, err
	}
	return f.ShotData, nil
}

// Click implements browser.Driver.
func (f *FakeDriver) Click(ctx context.Context, selector string, timeout time.Duration) error {
	return f.record("Click", selector, "")
}

// Fill implements browser.Driver.
func (f *FakeDriver) Fill(ctx context.Context, selector, value string, timeout time.Duration) error {
	return f.record("Fill", selector, value)
}

// Hover implements browser.Driver.
func (f *FakeDriver) Hover(ctx context.Context, selector string, timeout time.Duration) error {
	return f.record("Hover", selector, "")
}

// Press implements browser.Driver.
func (f *FakeDriver) Press(ctx context.Context, key string) error {
	return f.record("Press", key, "")
}

// Scroll implements browser.Driver.
func (f *FakeDriver) Scroll(ctx context.Context, toBottom bool) error {
	return f.record("Scroll", "", fmt.Sprintf("bottom=%v", toBottom))
}

// Location implements browser.Driver.
func (f *FakeDriver) Location(ctx context.Context) (string, error) {
	if err := f.record("Location", "", ""); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.URL, nil
}

// Close implements browser.Driver.
func (f *FakeDriver) Close() error { return nil }
