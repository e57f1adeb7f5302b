// Package config defines process configuration and loading.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load to layer
//   file and environment overrides on top.
// - External errors are wrapped via this package's sentinels.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DBPath locates the SQLite database file.
	DBPath string `koanf:"db_path"`

	// APIBaseURL is the base URL of the exam web application.
	APIBaseURL string `koanf:"api_base_url"`

	// ClientID identifies this device on uploaded score records.
	// Generated and persisted on first run when empty.
	ClientID string `koanf:"client_id"`

	// SyncIntervalSeconds sets the periodic drain interval.
	SyncIntervalSeconds int `koanf:"sync_interval_seconds"`

	// RequestTimeoutSeconds bounds each replay attempt and API call.
	RequestTimeoutSeconds int `koanf:"request_timeout_seconds"`

	// RetryLimit is the per-entry replay ceiling before abandonment.
	RetryLimit int `koanf:"retry_limit"`

	// CacheTTLSeconds sets the response cache lifetime.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// MetricsAddr configures the Prometheus listen address, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`

	// ReportPageHeight sets the pagination height in layout units.
	ReportPageHeight int `koanf:"report_page_height"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		DBPath:                "osce.db",
		APIBaseURL:            "http://localhost:8000/api",
		SyncIntervalSeconds:   30,
		RequestTimeoutSeconds: 15,
		RetryLimit:            5,
		CacheTTLSeconds:       300,
		MetricsAddr:           ":9090",
		ReportPageHeight:      40,
	}
}
