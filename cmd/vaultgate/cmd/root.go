// Package cmd provides the CLI commands for vaultgate.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vaultgate/vaultgate/internal/config"
)

var cfgFile string
var vaultDirFlag string

var rootCmd = &cobra.Command{
	Use:   "vaultgate",
	Short: "vaultgate - credential vault and tool-call security wrapper",
	Long: `vaultgate sits in front of an AI-agent runtime and makes its secret
material, session state, and tool invocations safe at rest and in motion.

It replaces plaintext credential files with an encrypted vault, keeps
long-lived session directories encrypted on disk between runs, boots the
wrapped agent with secrets injected only through environment variables,
and mediates every outbound tool call through a policy-enforcing proxy.

Quick start:
  1. vaultgate init
  2. vaultgate vault import --service openai --type api_key --value sk-...
  3. vaultgate launch --profile ./agent-profile.yaml -- my-agent

Configuration:
  Config is loaded from vaultgate.yaml in the current directory,
  $HOME/.vaultgate/, or /etc/vaultgate/.

  Environment variables override config values under the VAULTGATE_ prefix.
  Example: VAULTGATE_VAULT_DIR=/var/lib/vaultgate

Commands:
  init        Create the vault directory and master key
  vault       Import, list, get, and delete credentials
  session     Open, flush, and close a tarball-at-rest session
  launch      Boot the wrapped agent with credentials injected
  proxy       Run the mediated tool-call proxy (stdio JSON-RPC)
  version     Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./vaultgate.yaml)")
	rootCmd.PersistentFlags().StringVar(&vaultDirFlag, "vault-dir", "", "path to the vault application root (default: ~/.vaultgate)")
}

func initConfig() {
	config.InitViper(cfgFile)
}

// VaultDirOverride returns the --vault-dir flag value, or empty if unset.
func VaultDirOverride() string {
	return vaultDirFlag
}
