package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mott-dev/mott/internal/config"
)

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a mott data directory and default config",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runInit(cmd, absDir)
		},
	}
	return cmd
}

func runInit(cmd *cobra.Command, dir string) error {
	dataDir := filepath.Join(dir, "data")
	if err := os.MkdirAll(filepath.Join(dataDir, "guilds"), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	cfgPath := filepath.Join(dir, "mott.yaml")
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	cfg := config.Default(dataDir)
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	cmd.Printf("Initialized mott in %s\n", dir)
	cmd.Printf("  config:   %s\n", cfgPath)
	cmd.Printf("  data dir: %s\n", dataDir)
	return nil
}
