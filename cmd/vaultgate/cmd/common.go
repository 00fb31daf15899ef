package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vaultgate/vaultgate/internal/config"
	"github.com/vaultgate/vaultgate/internal/crypto"
)

// loadConfig loads and validates the config, applying the --vault-dir
// override (if set) over whatever vaultgate.yaml or the environment
// specified.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadRaw()
	if err != nil {
		return nil, err
	}
	if override := VaultDirOverride(); override != "" {
		cfg.VaultDir = override
		cfg.SetDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func masterKeyPath(vaultDir string) string {
	return filepath.Join(vaultDir, "master.key")
}

func vaultJSONPath(vaultDir string) string {
	return filepath.Join(vaultDir, "vault.json")
}

func sessionVaultPath(vaultDir, channel, account string) string {
	return filepath.Join(vaultDir, "channels", channel, account+".vault")
}

// loadMasterKey reads the raw 32-byte master key from vaultDir/master.key.
// A missing key is a fatal error with a message pointing at `vaultgate init`.
func loadMasterKey(vaultDir string) ([]byte, error) {
	path := masterKeyPath(vaultDir)
	key, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no master key at %s — run `vaultgate init` first", path)
		}
		return nil, fmt.Errorf("read master key %s: %w", path, err)
	}
	if len(key) != crypto.KeySize {
		return nil, fmt.Errorf("master key at %s is %d bytes, want %d", path, len(key), crypto.KeySize)
	}
	return key, nil
}

// confirmOverwrite prompts on stdin before an operation would overwrite
// existing state. Used only by init.
func confirmOverwrite(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return line == "y\n" || line == "Y\n" || line == "yes\n"
}
