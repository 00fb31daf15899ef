package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vaultgate/vaultgate/internal/crypto"
	"github.com/vaultgate/vaultgate/internal/session"
)

// Each session subcommand is its own short-lived process, so there is no
// live *session.Store to hand between "open", "flush", and "close". Instead
// "open" records the scratch directory it created in a ".scratch" pointer
// file next to the session vault; "flush" and "close" read that pointer
// and re-pack whatever is on disk in the scratch directory straight back
// to the vault via Store.ImportPlaintext, which needs no prior Open.

var (
	sessionChannel string
	sessionAccount string
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Open, flush, and close a tarball-at-rest session for manual inspection",
}

var sessionOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Decrypt a session vault into a scratch directory and print its path",
	RunE:  runSessionOpen,
}

var sessionFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Re-encrypt the scratch directory's current contents back to the session vault",
	RunE:  runSessionFlush,
}

var sessionCloseCmd = &cobra.Command{
	Use:   "close",
	Short: "Flush, then wipe the scratch directory and forget it",
	RunE:  runSessionClose,
}

func init() {
	for _, c := range []*cobra.Command{sessionOpenCmd, sessionFlushCmd, sessionCloseCmd} {
		c.Flags().StringVar(&sessionChannel, "channel", "", "channel name")
		c.Flags().StringVar(&sessionAccount, "account", "", "account name")
		_ = c.MarkFlagRequired("channel")
		_ = c.MarkFlagRequired("account")
	}
	sessionCmd.AddCommand(sessionOpenCmd, sessionFlushCmd, sessionCloseCmd)
	rootCmd.AddCommand(sessionCmd)
}

func scratchPointerPath(vaultPath string) string {
	return vaultPath + ".scratch"
}

func openSessionStore() (*session.Store, string, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", nil, err
	}
	key, err := loadMasterKey(cfg.VaultDir)
	if err != nil {
		return nil, "", nil, err
	}

	path := sessionVaultPath(cfg.VaultDir, sessionChannel, sessionAccount)
	s, err := session.New(key, path, session.DefaultFlushInterval)
	if err != nil {
		crypto.Zero(key)
		return nil, "", nil, err
	}
	return s, path, func() { crypto.Zero(key) }, nil
}

func runSessionOpen(cmd *cobra.Command, args []string) error {
	s, vaultPath, cleanup, err := openSessionStore()
	if err != nil {
		return err
	}
	defer cleanup()

	scratchDir, err := s.Open()
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}

	pointer := scratchPointerPath(vaultPath)
	if err := os.WriteFile(pointer, []byte(scratchDir), 0o600); err != nil {
		return fmt.Errorf("record scratch directory: %w", err)
	}

	fmt.Println(scratchDir)
	return nil
}

func readScratchPointer(vaultPath string) (string, error) {
	pointer := scratchPointerPath(vaultPath)
	data, err := os.ReadFile(pointer)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no open session for this channel/account — run `vaultgate session open` first")
		}
		return "", fmt.Errorf("read scratch pointer: %w", err)
	}
	return string(data), nil
}

func runSessionFlush(cmd *cobra.Command, args []string) error {
	s, vaultPath, cleanup, err := openSessionStore()
	if err != nil {
		return err
	}
	defer cleanup()

	scratchDir, err := readScratchPointer(vaultPath)
	if err != nil {
		return err
	}

	if err := s.ImportPlaintext(scratchDir); err != nil {
		return fmt.Errorf("flush session: %w", err)
	}
	fmt.Println("flushed")
	return nil
}

func runSessionClose(cmd *cobra.Command, args []string) error {
	s, vaultPath, cleanup, err := openSessionStore()
	if err != nil {
		return err
	}
	defer cleanup()

	scratchDir, err := readScratchPointer(vaultPath)
	if err != nil {
		return err
	}

	if err := s.ImportPlaintext(scratchDir); err != nil {
		return fmt.Errorf("flush session before close: %w", err)
	}
	if err := session.WipeDir(scratchDir); err != nil {
		return fmt.Errorf("wipe scratch directory: %w", err)
	}
	if err := os.Remove(scratchPointerPath(vaultPath)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove scratch pointer: %w", err)
	}

	fmt.Println("closed")
	return nil
}
