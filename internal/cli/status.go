package cli

import (
	"github.com/spf13/cobra"
)

func RunStatus(cmd *cobra.Command, args []string) error {
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}

	proj, err := openProject(rootPath)
	if err != nil {
		return err
	}

	files, err := proj.collectFiles("")
	if err != nil {
		return err
	}

	// Dry run: classification only, nothing is synthesized or written.
	p := proj.newPipeline(nil, true)
	stats := p.Run(cmd.Context(), files)

	asJSON, _ := cmd.Flags().GetBool("json")
	return PrintStatusSummary(BuildStatusSummary(rootPath, stats.Results), asJSON)
}
