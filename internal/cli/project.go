package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mirra-dev/mirra/internal/aggregate"
	"github.com/mirra-dev/mirra/internal/config"
	"github.com/mirra-dev/mirra/internal/ignore"
	"github.com/mirra-dev/mirra/internal/languages"
	"github.com/mirra-dev/mirra/internal/parser"
	"github.com/mirra-dev/mirra/internal/pipeline"
	"github.com/mirra-dev/mirra/internal/synth"
)

// GeneratorVersion is stamped into every record footer so stale records
// can be traced back to the tool build that wrote them.
const GeneratorVersion = "mirra-v1"

// project bundles the per-invocation collaborators every command needs.
type project struct {
	Root       string
	RecordsDir string
	Config     config.Config
	Matcher    *ignore.Matcher
	Registry   *parser.Registry
	Warnings   *parser.Warnings
}

func openProject(rootPath string) (*project, error) {
	cfg, err := config.Load(rootPath)
	if err != nil {
		return nil, err
	}

	userRules, err := config.LoadIgnoreRules(rootPath)
	if err != nil {
		return nil, err
	}

	return &project{
		Root:       rootPath,
		RecordsDir: config.RecordsDir(rootPath),
		Config:     cfg,
		Matcher:    ignore.NewMatcher(userRules),
		Registry:   languages.NewDefaultRegistry(),
		Warnings:   parser.NewWarnings(os.Stderr),
	}, nil
}

func (p *project) newPipeline(s synth.Synthesizer, dryRun bool) *pipeline.Pipeline {
	return &pipeline.Pipeline{
		Root:       p.Root,
		RecordsDir: p.RecordsDir,
		Registry:   p.Registry,
		Warnings:   p.Warnings,
		Synth:      s,
		Aggregate:  aggregate.NewMarkdownIndex(),
		Generator:  GeneratorVersion,
		DryRun:     dryRun,
		Log:        os.Stderr,
	}
}

// collectFiles walks the tree under subPath (relative to root, "" for
// the whole tree) and returns slash-separated relative paths of every
// non-ignored file with a supported extension, sorted by the walk order.
func (p *project) collectFiles(subPath string) ([]string, error) {
	start := p.Root
	if subPath != "" {
		start = filepath.Join(p.Root, filepath.FromSlash(subPath))
	}

	info, err := os.Stat(start)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", subPath, err)
	}
	if !info.IsDir() {
		rel, err := filepath.Rel(p.Root, start)
		if err != nil {
			return nil, err
		}
		return []string{filepath.ToSlash(rel)}, nil
	}

	files := make([]string, 0)
	err = filepath.Walk(start, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(p.Root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if rel != "." && p.Matcher.ShouldIgnore(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if p.Matcher.ShouldIgnore(rel, false) {
			return nil
		}
		if _, ok := p.Registry.LanguageForFile(rel); !ok {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// modelFor resolves the synthesis model: flag override first, then
// config, which already defaults when absent.
func (p *project) modelFor(flagValue string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	return p.Config.Model
}
