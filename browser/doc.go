// Package browser drives a single Chrome page through chromedp and exposes
// the narrow Driver surface the scanner core consumes: navigation, JavaScript
// evaluation, screenshots, and input simulation.
//
// The package also owns the run-scoped signal Recorder, fed by CDP runtime
// and network events, and the Snapshot collector that reduces live page state
// to plain data for the pure detector functions.
package browser
