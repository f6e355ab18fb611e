package config

import "time"

// Config is the complete configuration of the scanner and its host server.
type Config struct {
	// Browser configures the chromedp-driven page instance.
	Browser BrowserConfig `yaml:"browser"`

	// Oracle configures the optional LLM decision oracle.
	Oracle OracleConfig `yaml:"oracle"`

	// Policy holds detector severity thresholds and scan bounds.
	Policy Policy `yaml:"policy"`

	// Server configures the host HTTP server (serve mode only).
	Server ServerConfig `yaml:"server"`

	// Store configures the serve-mode run history database.
	Store StoreConfig `yaml:"store"`

	// Output configures where run artifacts are written.
	Output OutputConfig `yaml:"output"`
}

// BrowserConfig configures the browser driver.
type BrowserConfig struct {
	Headless          bool          `yaml:"headless"`
	ViewportWidth     int           `yaml:"viewport_width"`
	ViewportHeight    int           `yaml:"viewport_height"`
	MobileWidth       int           `yaml:"mobile_width"`
	MobileHeight      int           `yaml:"mobile_height"`
	UserAgent         string        `yaml:"user_agent"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
	ActionTimeout     time.Duration `yaml:"action_timeout"`
}

// OracleConfig configures the LLM oracle channel.
// An empty APIKey disables the oracle-steered exploration loop entirely.
type OracleConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Timeout     time.Duration `yaml:"timeout"`
	MinInterval time.Duration `yaml:"min_interval"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	MaxTurns    int           `yaml:"max_turns"`
	History     int           `yaml:"history"`
}

// Enabled reports whether the oracle channel is configured.
func (c OracleConfig) Enabled() bool { return c.APIKey != "" }

// Policy holds the severity-escalation thresholds and scan bounds.
// The defaults mirror the heuristics the detectors were tuned with, but
// every threshold is configurable rather than hard-coded.
type Policy struct {
	AccessibilityHigh  int `yaml:"accessibility_high"`   // issue count above which a11y escalates to High
	BrokenLinksHigh    int `yaml:"broken_links_high"`    // broken count above which links escalate to High
	MissingHeadersHigh int `yaml:"missing_headers_high"` // missing security headers above which escalates to High
	InteractiveHigh    int `yaml:"interactive_high"`     // interactive issues above which escalates to High
	ConsoleWarnLow     int `yaml:"console_warn_low"`     // warnings above which a Low bug is filed

	LinkCap         int           `yaml:"link_cap"`         // unique links checked per run
	LinkTimeout     time.Duration `yaml:"link_timeout"`     // per-link HEAD timeout
	LinkConcurrency int           `yaml:"link_concurrency"` // HEAD requests in flight
	ClickTargets    int           `yaml:"click_targets"`    // click-through scan target cap
	TabPresses      int           `yaml:"tab_presses"`      // keyboard workflow Tab count
	MaxDetails      int           `yaml:"max_details"`      // detail strings kept per bug

	FCPHigh       time.Duration `yaml:"fcp_high"`        // first contentful paint budget
	DOMReadySlow  time.Duration `yaml:"dom_ready_slow"`  // DOMContentLoaded budget
	FullLoadSlow  time.Duration `yaml:"full_load_slow"`  // load event budget
	MaxDOMNodes   int           `yaml:"max_dom_nodes"`   // DOM size budget
	MaxResourceKB int           `yaml:"max_resource_kb"` // single resource weight budget

	TruncatedTextMax int `yaml:"truncated_text_max"` // truncated elements before a layout issue
	TinyTouchMax     int `yaml:"tiny_touch_max"`     // small touch targets tolerated
	TouchTargetPx    int `yaml:"touch_target_px"`    // minimum touch target edge
}

// ServerConfig configures the serve-mode HTTP host.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	APIKey          string        `yaml:"api_key"`
	JWTSecret       string        `yaml:"jwt_secret"`
	TokenTTL        time.Duration `yaml:"token_ttl"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps"`
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
	ScanBinary      string        `yaml:"scan_binary"`
}

// StoreConfig configures the run history store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig configures run artifact placement.
type OutputConfig struct {
	Root string `yaml:"root"`
	Zip  bool   `yaml:"zip"`
}
