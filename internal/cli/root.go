package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mirra",
		Short: "Keep generated design records in sync with your source tree",
		Long: `Mirra maintains one markdown design record per source file under
.mirra/records/, mirroring your tree. Records are regenerated when the
source changes, but any manual edit to a record always wins over
regeneration.`,
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize .mirra/ in the current project",
		RunE:  RunInit,
	}
	initCmd.Flags().Bool("no-sync", false, "Create the layout only, skip the first sync")
	initCmd.Flags().String("model", "", "Synthesis model to write into the config")

	syncCmd := &cobra.Command{
		Use:   "sync [path]",
		Short: "Bring design records up to date with the source tree",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunSync,
	}
	syncCmd.Flags().Bool("dry-run", false, "Classify only; no synthesis, no writes")
	syncCmd.Flags().Bool("json", false, "Print machine-readable run summary")
	syncCmd.Flags().String("model", "", "Override the configured synthesis model")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show what changed and what sync would regenerate",
		RunE:  RunStatus,
	}
	statusCmd.Flags().Bool("json", false, "Print machine-readable status output")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the tree and sync changed files after a debounce",
		RunE:  RunWatch,
	}
	watchCmd.Flags().String("model", "", "Override the configured synthesis model")

	installHookCmd := &cobra.Command{
		Use:   "install-hook",
		Short: "Install git pre-commit hook that runs mirra sync",
		RunE:  RunInstallHook,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mirra %s\n", version)
		},
	}

	rootCmd.AddCommand(
		initCmd,
		syncCmd,
		statusCmd,
		watchCmd,
		installHookCmd,
		versionCmd,
	)

	return rootCmd
}
