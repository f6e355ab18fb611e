package api

import "time"

// ScanRequest starts a scan of one page.
type ScanRequest struct {
	// URL is the page to scan. Required, must be absolute http(s).
	URL string `json:"url"`
	// Scope is a free-form description of what to focus on.
	Scope string `json:"scope,omitempty"`
}

// ScanAccepted is returned when a scan has been started.
type ScanAccepted struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// RunSummary is one run history entry.
type RunSummary struct {
	RunID      string     `json:"run_id"`
	URL        string     `json:"url"`
	Scope      string     `json:"scope,omitempty"`
	Status     string     `json:"status"`
	BugCount   int        `json:"bug_count"`
	ReportPath string     `json:"report_path,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// TokenResponse carries a freshly issued bearer token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LogLine is one streamed scan output line.
type LogLine struct {
	RunID string    `json:"run_id"`
	Line  string    `json:"line"`
	At    time.Time `json:"at"`
}
