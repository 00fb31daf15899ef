package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vaultgate/vaultgate/internal/crypto"
)

var initPassphrase bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the vault directory and master key",
	Long: `init creates the per-user application root: master.key (32 bytes,
owner-only), an empty vault.json, and the channels/ directory for session
vaults.

With --passphrase, the master key is derived from a passphrase read from
stdin via scrypt; otherwise it is generated from the system RNG.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initPassphrase, "passphrase", false, "derive the master key from a passphrase instead of generating one")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	vaultDir := VaultDirOverride()
	if vaultDir == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		vaultDir = cfg.VaultDir
	}
	if vaultDir == "" {
		return fmt.Errorf("no vault directory: pass --vault-dir or set vault_dir in vaultgate.yaml")
	}

	keyPath := masterKeyPath(vaultDir)
	if _, err := os.Stat(keyPath); err == nil {
		if !confirmOverwrite(fmt.Sprintf("A master key already exists at %s. Overwrite it? This makes every existing credential unrecoverable.", keyPath)) {
			return fmt.Errorf("aborted: master key already exists at %s", keyPath)
		}
	}

	if err := os.MkdirAll(vaultDir, 0o700); err != nil {
		return fmt.Errorf("create vault directory %s: %w", vaultDir, err)
	}
	if err := os.MkdirAll(vaultDir+"/channels", 0o700); err != nil {
		return fmt.Errorf("create channels directory: %w", err)
	}

	key, err := newMasterKey()
	if err != nil {
		return err
	}
	defer crypto.Zero(key)

	if err := os.WriteFile(keyPath, key, 0o600); err != nil {
		return fmt.Errorf("write master key: %w", err)
	}

	vaultPath := vaultJSONPath(vaultDir)
	if _, err := os.Stat(vaultPath); os.IsNotExist(err) {
		if err := os.WriteFile(vaultPath, []byte(`{"version":1,"credentials":[]}`+"\n"), 0o600); err != nil {
			return fmt.Errorf("write empty vault: %w", err)
		}
	}

	fmt.Printf("vaultgate initialized at %s\n", vaultDir)
	return nil
}

func newMasterKey() ([]byte, error) {
	if !initPassphrase {
		return crypto.RandomKey()
	}

	fmt.Print("Passphrase: ")
	var passphrase string
	if _, err := fmt.Scanln(&passphrase); err != nil {
		return nil, fmt.Errorf("read passphrase: %w", err)
	}

	key, _, err := crypto.DeriveKey([]byte(passphrase), nil)
	if err != nil {
		return nil, fmt.Errorf("derive master key: %w", err)
	}
	return key, nil
}
