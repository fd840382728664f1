package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mott-dev/mott/internal/config"
	"github.com/mott-dev/mott/internal/ledger/csvfile"
)

// newVerifyCommand checks every guild's on-disk ledger for internal
// consistency: sequence ordering, counter sanity, orphaned logs.
func newVerifyCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check on-disk ledger state for consistency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Storage.Backend != config.BackendCSV {
				return fmt.Errorf("verify only applies to the %q storage backend", config.BackendCSV)
			}

			guildsDir := filepath.Join(cfg.DataDir, "guilds")
			entries, err := os.ReadDir(guildsDir)
			if err != nil {
				if os.IsNotExist(err) {
					cmd.Println("no guild ledgers found")
					return nil
				}
				return fmt.Errorf("listing guilds: %w", err)
			}

			violations := 0
			for _, entry := range entries {
				if !entry.IsDir() {
					continue
				}
				store, err := csvfile.Open(filepath.Join(guildsDir, entry.Name()))
				if err != nil {
					return err
				}
				errs, err := store.Verify()
				if err != nil {
					return fmt.Errorf("verifying guild %s: %w", entry.Name(), err)
				}
				for _, v := range errs {
					cmd.Printf("guild %s %s\n", entry.Name(), v.Error())
					violations++
				}
			}

			if violations > 0 {
				return fmt.Errorf("found %d consistency violation(s)", violations)
			}
			cmd.Println("ok")
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "mott.yaml", "path to mott.yaml")
	return cmd
}
