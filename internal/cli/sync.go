package cli

import (
	"github.com/spf13/cobra"

	"github.com/mirra-dev/mirra/internal/synth"
)

func RunSync(cmd *cobra.Command, args []string) error {
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}

	proj, err := openProject(rootPath)
	if err != nil {
		return err
	}

	subPath := ""
	if len(args) > 0 {
		subPath = args[0]
	}
	files, err := proj.collectFiles(subPath)
	if err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	asJSON, _ := cmd.Flags().GetBool("json")
	model, _ := cmd.Flags().GetString("model")

	var synthesizer synth.Synthesizer
	if !dryRun {
		synthesizer, err = synth.NewGemini(cmd.Context(), proj.modelFor(model))
		if err != nil {
			return err
		}
	}

	p := proj.newPipeline(synthesizer, dryRun)
	stats := p.Run(cmd.Context(), files)

	mode := "sync"
	if dryRun {
		mode = "sync (dry-run)"
	}
	return PrintRunSummary(mode, stats, asJSON)
}
