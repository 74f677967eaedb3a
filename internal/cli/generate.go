package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fsfw-tools/mibgen/internal/config"
	"github.com/fsfw-tools/mibgen/internal/git"
	"github.com/fsfw-tools/mibgen/internal/parser"
	"github.com/fsfw-tools/mibgen/internal/pipeline"
	"github.com/fsfw-tools/mibgen/internal/watcher"
)

type generateOptions struct {
	root       string
	configFile string
	watch      bool
	print      bool
	append     bool
	quiet      bool
}

var (
	generateWatch  bool
	generatePrint  bool
	generateAppend bool
	generateQuiet  bool
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate [type]",
	Short: "Generate MIB tables from annotated headers",
	Long: fmt.Sprintf(`Generate extracts the selected tables and writes them to the configured
output directory. The type selector is one of %s (default all).

Configuration is read from <root>/.mibgen/config.yml and MIBGEN_* environment
variables. With --watch the selection is regenerated whenever a source changes.`,
		pipeline.SelectorNames()),
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		selector := pipeline.SelectAll
		if len(args) == 1 {
			selector = args[0]
		}

		// Set up context with cancellation for Ctrl+C
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := generateOptions{
			root:       rootDir,
			configFile: cfgFile,
			watch:      generateWatch,
			print:      generatePrint,
			append:     generateAppend,
			quiet:      generateQuiet,
		}
		return runGenerate(ctx, selector, opts, cmd.OutOrStdout(), cmd.ErrOrStderr(), newLogger(cmd.ErrOrStderr()))
	},
}

func init() {
	generateCmd.Flags().BoolVarP(&generateWatch, "watch", "w", false, "regenerate when sources change")
	generateCmd.Flags().BoolVarP(&generatePrint, "print", "p", false, "print the generated tables as YAML")
	generateCmd.Flags().BoolVar(&generateAppend, "append", false, "keep existing database rows instead of replacing them")
	generateCmd.Flags().BoolVarP(&generateQuiet, "quiet", "q", false, "suppress progress bars")
	rootCmd.AddCommand(generateCmd)
}

// runGenerate runs one generation and, in watch mode, keeps regenerating
// until ctx is cancelled. Entry counts always go to stdout.
func runGenerate(ctx context.Context, selector string, opts generateOptions, stdout, stderr io.Writer, logger *slog.Logger) error {
	if _, err := pipeline.Select(selector); err != nil {
		return err
	}

	root, err := filepath.Abs(opts.root)
	if err != nil {
		return fmt.Errorf("failed to resolve root: %w", err)
	}

	cfg, err := loadConfig(root, opts.configFile)
	if err != nil {
		return err
	}
	if opts.append {
		cfg.Output.Fresh = false
	}

	var source parser.Source = parser.FileSource{}
	var cache *parser.CachedSource
	if cfg.Cache.LineCacheSize > 0 {
		cache, err = parser.NewCachedSource(parser.FileSource{}, cfg.Cache.LineCacheSize)
		if err != nil {
			return fmt.Errorf("failed to create line cache: %w", err)
		}
		defer cache.Close()
		source = cache
	}

	var printTo io.Writer
	if opts.print {
		printTo = stdout
	}

	p := pipeline.New(pipeline.Options{
		Root:     root,
		Config:   cfg,
		Source:   source,
		Progress: NewCLIProgressReporter(opts.quiet, stderr),
		Logger:   logger,
		Print:    printTo,
		Git:      git.NewOperations(),
	})

	generate := func(ctx context.Context) error {
		res, err := p.Run(ctx, selector)
		if err != nil {
			return err
		}
		for _, c := range res.Counts {
			fmt.Fprintf(stdout, "Found %d %s entries\n", c.Entries, c.Generator)
		}
		return nil
	}

	if err := generate(ctx); err != nil {
		return err
	}
	if !opts.watch {
		return nil
	}

	// Start watch mode (blocks until cancelled)
	fw, err := watcher.NewFileWatcher(p.Roots(), cfg.EventSuffixes(), watcher.Options{
		Exclude: []string{p.OutputDir()},
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to start watch mode: %w", err)
	}

	var invalidator watcher.Invalidator
	if cache != nil {
		invalidator = cache
	}
	regen := watcher.RegeneratorFunc(func(ctx context.Context, _ []string) error {
		return generate(ctx)
	})

	if !opts.quiet {
		fmt.Fprintln(stderr, "Watching for changes (Ctrl+C to stop)...")
	}
	err = watcher.NewCoordinator(fw, regen, invalidator, logger).Start(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func loadConfig(root, configFile string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = config.NewFileLoader(root, configFile).Load()
	} else {
		cfg, err = config.LoadConfigFromDir(root)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
