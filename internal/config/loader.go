// Package config provides configuration loading for vaultgate.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// InitViper initializes Viper with the configuration file and environment
// variables. If configFile is empty, it searches for vaultgate.yaml/.yml in
// standard locations. The search requires an explicit YAML extension to
// avoid matching the binary itself, which Viper's built-in SetConfigName
// would match (same base name, no extension).
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		// No config file found in any standard location. Set name/type
		// without search paths so ReadInConfig returns
		// ConfigFileNotFoundError (handled gracefully by callers).
		viper.SetConfigName("vaultgate")
		viper.SetConfigType("yaml")
	}

	// Environment variable support: VAULTGATE_VAULT_DIR, VAULTGATE_POLICY_RATE_LIMIT, ...
	viper.SetEnvPrefix("VAULTGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
}

// findConfigFile searches standard locations for a vaultgate config file
// with an explicit YAML extension (.yaml or .yml). This prevents Viper from
// matching the binary "vaultgate" (no extension) in the current directory.
func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{
		".",
		filepath.Join(home, ".vaultgate"),
	}
	if runtime.GOOS == "windows" {
		if pd := os.Getenv("ProgramData"); pd != "" {
			paths = append(paths, filepath.Join(pd, "vaultgate"))
		}
	} else {
		paths = append(paths, "/etc/vaultgate")
	}
	return findConfigFileInPaths(paths)
}

// findConfigFileInPaths searches the given directories for vaultgate.yaml
// or .yml. Returns the full path of the first match, or empty string if
// none found.
func findConfigFileInPaths(paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "vaultgate"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindNestedEnvKeys binds all config keys for environment variable support.
func bindNestedEnvKeys() {
	_ = viper.BindEnv("vault_dir")
	_ = viper.BindEnv("log_level")
	_ = viper.BindEnv("dev_mode")

	_ = viper.BindEnv("policy.blocked_tools")
	_ = viper.BindEnv("policy.rate_limit")
	_ = viper.BindEnv("policy.rate_window")

	_ = viper.BindEnv("audit.file")

	_ = viper.BindEnv("session.flush_interval")

	_ = viper.BindEnv("launcher.profile_paths")
	_ = viper.BindEnv("launcher.env_prefix")

	_ = viper.BindEnv("metrics.enabled")
	_ = viper.BindEnv("metrics.addr")
}

// LoadRaw reads the configuration file and environment overrides and
// applies defaults, but does not validate. Callers that need to apply a
// CLI flag override (e.g. --vault-dir) before validation should use this
// and call Validate themselves once the override is applied.
func LoadRaw() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - continue with env vars and flags only.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SetDefaults()
	return &cfg, nil
}

// Load reads the configuration file, applies environment overrides, sets
// defaults, and returns the validated Config.
func Load() (*Config, error) {
	cfg, err := LoadRaw()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// ConfigFileUsed returns the path to the configuration file that was
// loaded. Returns an empty string if no config file was found (env vars
// and flags only).
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
