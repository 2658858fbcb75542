package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mirra-dev/mirra/internal/config"
)

func RunInit(cmd *cobra.Command, args []string) error {
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}

	cfg := config.Default()
	if model, _ := cmd.Flags().GetString("model"); strings.TrimSpace(model) != "" {
		cfg.Model = strings.TrimSpace(model)
	}

	configPath := filepath.Join(rootPath, config.Dir, config.ConfigFile)
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("%s already exists, leaving it untouched\n", configPath)
	} else if err := cfg.Save(rootPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if err := os.MkdirAll(config.RecordsDir(rootPath), 0755); err != nil {
		return fmt.Errorf("failed to create records directory: %w", err)
	}

	fmt.Printf("Initialized %s\n", filepath.Join(rootPath, config.Dir))

	noSync, _ := cmd.Flags().GetBool("no-sync")
	if noSync {
		return nil
	}

	fmt.Println("Running initial sync...")
	return RunSync(cmd, nil)
}
