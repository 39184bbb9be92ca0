package config

// CurrentConfigVersion is the latest config schema version.
const CurrentConfigVersion = 1

// Config represents the root configuration for smarttimers tooling.
type Config struct {
	// Version is the config schema version. Defaults to 1 when omitted.
	Version int `json:"version,omitempty" koanf:"version" toml:"version,omitempty"`

	// Session configures the default timing session.
	Session *SessionConfig `json:"session,omitempty" koanf:"session" toml:"session,omitempty"`

	// Export configures report export.
	Export *ExportConfig `json:"export,omitempty" koanf:"export" toml:"export,omitempty"`

	// Log configures diagnostic logging.
	Log *LogConfig `json:"log,omitempty" koanf:"log" toml:"log,omitempty"`
}

// SessionConfig configures the timing session.
type SessionConfig struct {
	// Name labels exported output. Default: "smarttimers".
	Name string `json:"name,omitempty" koanf:"name" toml:"name,omitempty"`

	// Clock selects the clock ID used for readings. Default: "monotonic".
	Clock string `json:"clock,omitempty" koanf:"clock" toml:"clock,omitempty"`

	// WarnThreshold logs a warning for intervals longer than this
	// duration. Zero disables the check.
	WarnThreshold Duration `json:"warn_threshold,omitempty" koanf:"warn_threshold" toml:"warn_threshold,omitempty"`
}

// ExportConfig configures report export.
type ExportConfig struct {
	// Path is the export file path. Empty derives it from the session
	// name.
	Path string `json:"path,omitempty" koanf:"path" toml:"path,omitempty"`

	// Append appends to the export file instead of truncating it.
	// Default: false.
	Append *bool `json:"append,omitempty" koanf:"append" toml:"append,omitempty"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	// File is the log file path. Empty logs to stderr.
	File string `json:"file,omitempty" koanf:"file" toml:"file,omitempty"`

	// Debug enables info-level logging. Default: false.
	Debug *bool `json:"debug,omitempty" koanf:"debug" toml:"debug,omitempty"`

	// Trace enables debug-level logging. Default: false.
	Trace *bool `json:"trace,omitempty" koanf:"trace" toml:"trace,omitempty"`
}

// GetSession returns the session config, creating it if it doesn't exist.
func (c *Config) GetSession() *SessionConfig {
	if c.Session == nil {
		c.Session = &SessionConfig{}
	}

	return c.Session
}

// GetExport returns the export config, creating it if it doesn't exist.
func (c *Config) GetExport() *ExportConfig {
	if c.Export == nil {
		c.Export = &ExportConfig{}
	}

	return c.Export
}

// GetLog returns the log config, creating it if it doesn't exist.
func (c *Config) GetLog() *LogConfig {
	if c.Log == nil {
		c.Log = &LogConfig{}
	}

	return c.Log
}

// IsAppendEnabled returns whether export appending is enabled.
func (e *ExportConfig) IsAppendEnabled() bool {
	if e == nil || e.Append == nil {
		return false
	}

	return *e.Append
}

// IsDebugEnabled returns whether debug logging is enabled.
func (l *LogConfig) IsDebugEnabled() bool {
	if l == nil || l.Debug == nil {
		return false
	}

	return *l.Debug
}

// IsTraceEnabled returns whether trace logging is enabled.
func (l *LogConfig) IsTraceEnabled() bool {
	if l == nil || l.Trace == nil {
		return false
	}

	return *l.Trace
}
