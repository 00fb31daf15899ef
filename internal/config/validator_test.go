package config

import (
	"strings"
	"testing"
)

func minimalValidConfig() *Config {
	cfg := &Config{VaultDir: "/home/alice/.vaultgate"}
	cfg.SetDefaults()
	return cfg
}

func TestValidateValidConfig(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidateRequiresVaultDir(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.SetDefaults()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for missing vault_dir")
	}
	if !strings.Contains(err.Error(), "VaultDir") {
		t.Errorf("Validate() error = %q, want it to mention VaultDir", err)
	}
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.LogLevel = "verbose"

	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() expected error for invalid log_level")
	}
}

func TestValidateRejectsNegativeRateLimit(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Policy.RateLimit = -1

	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() expected error for negative rate_limit")
	}
}

func TestValidateRejectsMalformedMetricsAddr(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Metrics.Addr = "not-a-host-port"

	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() expected error for malformed metrics addr")
	}
}
