package config

import "time"

// DefaultConfig returns the full default configuration.
func DefaultConfig() *Config {
	return &Config{
		Browser: DefaultBrowserConfig(),
		Oracle:  DefaultOracleConfig(),
		Policy:  DefaultPolicy(),
		Server:  DefaultServerConfig(),
		Store:   StoreConfig{Path: "webqa.db"},
		Output:  OutputConfig{Root: "runs", Zip: true},
	}
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Headless:          true,
		ViewportWidth:     1280,
		ViewportHeight:    800,
		MobileWidth:       375,
		MobileHeight:      812,
		NavigationTimeout: 30 * time.Second,
		ActionTimeout:     3 * time.Second,
	}
}

// DefaultOracleConfig returns the default oracle configuration.
// The API key is intentionally empty: without one the oracle loop is a no-op.
func DefaultOracleConfig() OracleConfig {
	return OracleConfig{
		BaseURL:     "https://api.openai.com",
		Model:       "gpt-4o-mini",
		Timeout:     60 * time.Second,
		MinInterval: 7 * time.Second,
		RetryDelay:  15 * time.Second,
		MaxTurns:    20,
		History:     15,
	}
}

// DefaultPolicy returns the default detector policy.
func DefaultPolicy() Policy {
	return Policy{
		AccessibilityHigh:  5,
		BrokenLinksHigh:    5,
		MissingHeadersHigh: 3,
		InteractiveHigh:    3,
		ConsoleWarnLow:     10,

		LinkCap:         30,
		LinkTimeout:     8 * time.Second,
		LinkConcurrency: 8,
		ClickTargets:    8,
		TabPresses:      15,
		MaxDetails:      20,

		FCPHigh:       3 * time.Second,
		DOMReadySlow:  5 * time.Second,
		FullLoadSlow:  10 * time.Second,
		MaxDOMNodes:   3000,
		MaxResourceKB: 500,

		TruncatedTextMax: 5,
		TinyTouchMax:     3,
		TouchTargetPx:    24,
	}
}

// DefaultServerConfig returns the default host server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            ":8080",
		TokenTTL:        time.Hour,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    2,
		RateLimitBurst:  5,
		ScanBinary:      "webqa",
	}
}
