package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vaultgate/vaultgate/internal/crypto"
	"github.com/vaultgate/vaultgate/internal/launcher"
	"github.com/vaultgate/vaultgate/internal/vault"
)

var launchProfile string

var launchCmd = &cobra.Command{
	Use:   "launch --profile PATH -- <agent command> [args...]",
	Short: "Boot the wrapped agent with credentials injected",
	Long: `launch resolves every vault reference in the given auth profile,
rewrites the profile to remove the resolved key fields, spawns the agent
command with the resolved values injected as environment variables, and
zeroizes them once the agent exits.`,
	RunE: runLaunch,
}

func init() {
	launchCmd.Flags().StringVar(&launchProfile, "profile", "", "path to the auth profile file")
	_ = launchCmd.MarkFlagRequired("profile")
	rootCmd.AddCommand(launchCmd)
}

func runLaunch(cmd *cobra.Command, args []string) error {
	dashAt := cmd.ArgsLenAtDash()
	var command []string
	if dashAt >= 0 {
		command = args[dashAt:]
	}
	if len(command) == 0 {
		return fmt.Errorf("launch requires an agent command after --")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	key, err := loadMasterKey(cfg.VaultDir)
	if err != nil {
		return err
	}
	defer crypto.Zero(key)

	v, err := vault.Open(key, vaultJSONPath(cfg.VaultDir))
	if err != nil {
		return fmt.Errorf("open vault: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	l := launcher.New(v, cfg.Launcher.EnvPrefix, logger)

	code, err := l.Launch(launchProfile, command)
	if err != nil {
		return err
	}
	if code != 0 {
		os.Exit(code)
	}
	return nil
}
