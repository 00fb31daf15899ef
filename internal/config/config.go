// Package config provides configuration types for vaultgate.
//
// The schema is intentionally small: it covers exactly the settings the
// core components need (vault location, proxy policy, audit sink, session
// store flush cadence, launcher profile scan paths) and nothing else. It
// excludes the operator-facing surfaces (admin UI, multi-tenant identities,
// HTTP gateway) that sit outside this module's scope.
package config

// Config is the top-level configuration for vaultgate.
type Config struct {
	// VaultDir is the per-user application root holding master.key,
	// vault.json, channels/, and audit.jsonl.
	VaultDir string `yaml:"vault_dir" mapstructure:"vault_dir" validate:"required"`

	// Policy configures the proxy's blocklist and rate limiting.
	Policy PolicyConfig `yaml:"policy" mapstructure:"policy"`

	// Audit configures the append-only audit sink.
	Audit AuditConfig `yaml:"audit" mapstructure:"audit"`

	// Session configures the tarball-at-rest session store.
	Session SessionConfig `yaml:"session" mapstructure:"session"`

	// Launcher configures the credential-injection launcher.
	Launcher LauncherConfig `yaml:"launcher" mapstructure:"launcher"`

	// Metrics configures the optional Prometheus metrics endpoint.
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`

	// LogLevel sets the minimum log level for stderr logging.
	// Valid values: "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// DevMode enables verbose logging and other development conveniences.
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// PolicyConfig configures the C6 proxy's static policy: a blocklist and a
// per-tool sliding-window rate limit.
type PolicyConfig struct {
	// BlockedTools is the static set of tool names the proxy refuses to
	// call, regardless of arguments.
	BlockedTools []string `yaml:"blocked_tools" mapstructure:"blocked_tools"`

	// RateLimit is the maximum number of calls to a single tool allowed
	// within RateWindow. Zero disables rate limiting.
	RateLimit int `yaml:"rate_limit" mapstructure:"rate_limit" validate:"omitempty,min=1"`

	// RateWindow is the sliding window over which RateLimit is evaluated
	// (e.g. "1m", "30s").
	RateWindow string `yaml:"rate_window" mapstructure:"rate_window" validate:"omitempty"`
}

// AuditConfig configures the C7 append-only audit writer. There is no
// rotation setting: rotation is the embedder's responsibility, not the
// core's — the audit writer is deliberately simpler than a
// size/age-rotated log.
type AuditConfig struct {
	// File is the path to the audit JSONL sink. Defaults to
	// "<vault_dir>/audit.jsonl" when empty.
	File string `yaml:"file" mapstructure:"file"`
}

// SessionConfig configures the C4 tarball-at-rest session store.
type SessionConfig struct {
	// FlushInterval is how often an open session is flushed to its vault
	// file (e.g. "5m"). Zero disables periodic flush; the store still
	// flushes once on close.
	FlushInterval string `yaml:"flush_interval" mapstructure:"flush_interval" validate:"omitempty"`
}

// LauncherConfig configures the C5 credential-injection launcher.
type LauncherConfig struct {
	// ProfilePaths are the locations the launcher scans for auth profiles
	// that may contain vault references.
	ProfilePaths []string `yaml:"profile_paths" mapstructure:"profile_paths"`

	// EnvPrefix is the fixed prefix used to build the synthetic
	// environment variable name for a migrated reference
	// (`<EnvPrefix>_<UPPERCASED_ID>`).
	EnvPrefix string `yaml:"env_prefix" mapstructure:"env_prefix" validate:"omitempty"`
}

// MetricsConfig configures the optional Prometheus metrics endpoint. It is
// disabled by default; the core proxy binary does not bind any network
// listener unless this is explicitly turned on.
type MetricsConfig struct {
	// Enabled turns on the /metrics HTTP endpoint.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Addr is the address the metrics endpoint listens on when enabled
	// (e.g. "127.0.0.1:9090").
	Addr string `yaml:"addr" mapstructure:"addr" validate:"omitempty,hostname_port"`
}

// SetDefaults applies sensible default values to the configuration. It
// must be called before Validate.
func (c *Config) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.Audit.File == "" && c.VaultDir != "" {
		c.Audit.File = c.VaultDir + "/audit.jsonl"
	}

	if c.Session.FlushInterval == "" {
		c.Session.FlushInterval = "5m"
	}

	if c.Launcher.EnvPrefix == "" {
		c.Launcher.EnvPrefix = "VAULTGATE"
	}

	if c.Metrics.Addr == "" {
		c.Metrics.Addr = "127.0.0.1:9090"
	}
}
