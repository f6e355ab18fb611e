package browser

import (
	"strings"
	"sync"

	"github.com/BaSui01/webqa/types"
	"github.com/chromedp/cdproto/network"
)

// Recorder accumulates runtime signals emitted by the page for one run:
// console errors and warnings, uncaught exceptions, and failed network
// requests. It is append-only for the lifetime of a run and is flushed only
// by the final aggregate detectors and the report compiler.
//
// CDP events arrive on the driver's listener goroutine, so access is
// mutex-guarded even though the run itself is single-threaded.
type Recorder struct {
	mu         sync.Mutex
	errors     []string
	warnings   []string
	exceptions []string
	failed     []types.FailedRequest
	requests   map[network.RequestID]requestInfo
}

type requestInfo struct {
	url          string
	method       string
	resourceType string
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{requests: make(map[network.RequestID]requestInfo)}
}

// AddConsole records a console API call of the given level.
func (r *Recorder) AddConsole(level, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch level {
	case "error", "assert":
		r.errors = append(r.errors, text)
	case "warning":
		r.warnings = append(r.warnings, text)
	}
}

// AddException records an uncaught page exception.
func (r *Recorder) AddException(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exceptions = append(r.exceptions, text)
}

// TrackRequest registers an outgoing request so later failure events can be
// attributed to a URL and resource type.
func (r *Recorder) TrackRequest(id network.RequestID, url, method, resourceType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[id] = requestInfo{url: url, method: method, resourceType: strings.ToLower(resourceType)}
}

// AddResponse records a failed request when the response status is an error.
func (r *Recorder) AddResponse(id network.RequestID, status int) {
	if status < 400 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	info := r.requests[id]
	r.failed = append(r.failed, types.FailedRequest{
		URL:          info.url,
		Method:       info.method,
		ResourceType: info.resourceType,
		Status:       status,
	})
}

// AddLoadingFailure records a request that never completed.
func (r *Recorder) AddLoadingFailure(id network.RequestID, errText string, canceled bool) {
	if canceled {
		// deliberate cancellation is not a defect
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	info := r.requests[id]
	r.failed = append(r.failed, types.FailedRequest{
		URL:          info.url,
		Method:       info.method,
		ResourceType: info.resourceType,
		Failure:      errText,
	})
}

// ConsoleErrors returns a copy of the recorded console errors.
func (r *Recorder) ConsoleErrors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}

// ConsoleWarnings returns a copy of the recorded console warnings.
func (r *Recorder) ConsoleWarnings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.warnings...)
}

// Exceptions returns a copy of the recorded uncaught exceptions.
func (r *Recorder) Exceptions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.exceptions...)
}

// FailedRequests returns a copy of the recorded failed requests.
func (r *Recorder) FailedRequests() []types.FailedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.FailedRequest(nil), r.failed...)
}

// ErrorCount returns the combined console error and exception count.
// The action engine samples it before and after every interaction to
// attribute new errors to the action that triggered them.
func (r *Recorder) ErrorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors) + len(r.exceptions)
}
