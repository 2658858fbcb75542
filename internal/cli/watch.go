package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mirra-dev/mirra/internal/synth"
	"github.com/mirra-dev/mirra/internal/watch"
)

func RunWatch(cmd *cobra.Command, args []string) error {
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}

	proj, err := openProject(rootPath)
	if err != nil {
		return err
	}

	model, _ := cmd.Flags().GetString("model")
	synthesizer, err := synth.NewGemini(cmd.Context(), proj.modelFor(model))
	if err != nil {
		return err
	}
	p := proj.newPipeline(synthesizer, false)

	debounce := time.Duration(proj.Config.DebounceSeconds) * time.Second
	watcher, err := watch.New(rootPath, proj.Matcher, debounce)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Watching %s (debounce %s); Ctrl-C to stop\n", rootPath, debounce)

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nStopping watch")
			return nil

		case err := <-watcher.Errors():
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)

		case relPath := <-watcher.Events():
			if _, ok := proj.Registry.LanguageForFile(relPath); !ok {
				continue
			}
			res, err := p.ProcessFile(ctx, relPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}
			fmt.Printf("%s: %s\n", res.Path, res.Action)
		}
	}
}
