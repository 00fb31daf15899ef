package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vaultgate/vaultgate/internal/crypto"
	"github.com/vaultgate/vaultgate/internal/vault"
)

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Import, list, get, and delete credentials",
}

var (
	importService string
	importType    string
	importValue   string
	getID         string
	deleteID      string
)

var vaultImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a credential into the vault",
	RunE:  runVaultImport,
}

var vaultListCmd = &cobra.Command{
	Use:   "list",
	Short: "List credentials (without decrypting their values)",
	RunE:  runVaultList,
}

var vaultGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Decrypt and print a credential's plaintext",
	RunE:  runVaultGet,
}

var vaultDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a credential",
	RunE:  runVaultDelete,
}

func init() {
	vaultImportCmd.Flags().StringVar(&importService, "service", "", "service name (e.g. openai)")
	vaultImportCmd.Flags().StringVar(&importType, "type", "", "credential type (e.g. api_key)")
	vaultImportCmd.Flags().StringVar(&importValue, "value", "", "plaintext credential value")
	_ = vaultImportCmd.MarkFlagRequired("service")
	_ = vaultImportCmd.MarkFlagRequired("type")
	_ = vaultImportCmd.MarkFlagRequired("value")

	vaultGetCmd.Flags().StringVar(&getID, "id", "", "reference id")
	_ = vaultGetCmd.MarkFlagRequired("id")

	vaultDeleteCmd.Flags().StringVar(&deleteID, "id", "", "reference id")
	_ = vaultDeleteCmd.MarkFlagRequired("id")

	vaultCmd.AddCommand(vaultImportCmd, vaultListCmd, vaultGetCmd, vaultDeleteCmd)
	rootCmd.AddCommand(vaultCmd)
}

func openVault() (*vault.Vault, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	key, err := loadMasterKey(cfg.VaultDir)
	if err != nil {
		return nil, nil, err
	}
	v, err := vault.Open(key, vaultJSONPath(cfg.VaultDir))
	if err != nil {
		crypto.Zero(key)
		return nil, nil, err
	}
	return v, func() { crypto.Zero(key) }, nil
}

func runVaultImport(cmd *cobra.Command, args []string) error {
	v, cleanup, err := openVault()
	if err != nil {
		return err
	}
	defer cleanup()

	rec, err := v.Import(importService, importType, importValue)
	if err != nil {
		return fmt.Errorf("import credential: %w", err)
	}
	fmt.Println(rec.ID)
	return nil
}

func runVaultList(cmd *cobra.Command, args []string) error {
	v, cleanup, err := openVault()
	if err != nil {
		return err
	}
	defer cleanup()

	records := v.List()
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credential list: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func runVaultGet(cmd *cobra.Command, args []string) error {
	v, cleanup, err := openVault()
	if err != nil {
		return err
	}
	defer cleanup()

	_, plaintext, err := v.Get(getID)
	if err != nil {
		return fmt.Errorf("get credential %s: %w", getID, err)
	}
	defer crypto.Zero(plaintext)

	fmt.Println(string(plaintext))
	return nil
}

func runVaultDelete(cmd *cobra.Command, args []string) error {
	v, cleanup, err := openVault()
	if err != nil {
		return err
	}
	defer cleanup()

	ok, err := v.Delete(deleteID)
	if err != nil {
		return fmt.Errorf("delete credential %s: %w", deleteID, err)
	}
	if !ok {
		return fmt.Errorf("no credential with id %s", deleteID)
	}
	fmt.Printf("deleted %s\n", deleteID)
	return nil
}
