// Command build-manifests walks the source data tree and writes one manifest
// per section.
package main

import (
	"fmt"
	"os"

	"github.com/ekoatlas/data-api/internal/manifest"
	"github.com/ekoatlas/data-api/internal/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type buildFlags struct {
	source     string
	out        string
	filePrefix string
	hints      string
	dryRun     bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &buildFlags{}
	cmd := &cobra.Command{
		Use:   "build-manifests",
		Short: "Build section manifests from the source data tree",
		Long: "Walks the source tree in lexical order, derives a manifest key for every JSON file and writes " +
			"<out>/<Section>/manifest.json for every section. Output is schema-checked and byte-identical across runs.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(flags.verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return runBuild(cmd, flags, logger)
		},
	}

	cmd.Flags().StringVar(&flags.source, "source", "public/repo/source", "Source tree to walk")
	cmd.Flags().StringVar(&flags.out, "out", "public/repo", "Directory receiving <Section>/manifest.json")
	cmd.Flags().StringVar(&flags.filePrefix, "file-prefix", manifest.DefaultFilePrefix, "Prefix joined in front of every entry's file path")
	cmd.Flags().StringVar(&flags.hints, "hints", "", "Optional JSON file of per-key root/cityKeys overrides")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Print counts without writing manifests")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	return cmd
}

func runBuild(cmd *cobra.Command, flags *buildFlags, logger *zap.Logger) error {
	info, err := os.Stat(flags.source)
	if err != nil {
		return fmt.Errorf("source tree: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source tree %s is not a directory", flags.source)
	}

	opts := manifest.BuildOptions{FilePrefix: flags.filePrefix, Logger: logger}
	if flags.hints != "" {
		if opts.Hints, err = manifest.LoadHints(flags.hints); err != nil {
			return err
		}
	}

	result, err := manifest.Build(os.DirFS(flags.source), opts)
	if err != nil {
		return err
	}

	for _, section := range models.Sections {
		logger.Info("Section manifest built",
			zap.String("section", section.String()),
			zap.Int("entries", len(result.Manifests[section])),
		)
	}
	logger.Info("Source tree scanned",
		zap.Int("files", result.Files),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("duplicates", len(result.Duplicates)),
	)

	if flags.dryRun {
		_, err := result.Documents()
		return err
	}
	if err := result.Write(flags.out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d manifests to %s\n", len(models.Sections), flags.out)
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
