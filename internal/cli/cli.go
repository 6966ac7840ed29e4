package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/census-dict/internal/categories"
	"github.com/pfrederiksen/census-dict/internal/config"
	"github.com/pfrederiksen/census-dict/internal/dictionary"
	"github.com/pfrederiksen/census-dict/internal/logger"
	"github.com/pfrederiksen/census-dict/internal/overrides"
	"github.com/pfrederiksen/census-dict/internal/scraper"
	"github.com/pfrederiksen/census-dict/internal/storage"
	"github.com/pfrederiksen/census-dict/internal/variable"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	ExitChanges = 2
)

var (
	flagConfig           string
	flagCacheDir         string
	flagRefresh          bool
	flagVerbose          bool
	flagOverrides        string
	flagOutput           string
	flagValidateHeadings bool
	flagStrictASCII      bool
	flagFormat           string
	flagSort             string
	flagTopic            string
	flagExitCode         bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "census-dict",
		Short: "Build a JSON dictionary of ABS 2021 Census variables and categories",
		Long: `A CLI tool to extract census variable and category-code metadata from the
ABS Census Dictionary 2021 pages and normalize it into a single JSON document.
Irregular category tables are handled through a per-variable override file.`,
		SilenceUsage: true,
		RunE:         runBuild,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", "", "Directory for cached pages (default ~/.cache/census-dict/htmls)")
	cmd.PersistentFlags().BoolVar(&flagRefresh, "refresh", false, "Re-download pages even when cached")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")
	cmd.PersistentFlags().StringVar(&flagOverrides, "overrides", "", "Path to the override file (default configs/overrides.json)")

	addBuildFlags(cmd)

	build := &cobra.Command{
		Use:   "build",
		Short: "Build the full dictionary (default command)",
		Args:  cobra.NoArgs,
		RunE:  runBuild,
	}
	addBuildFlags(build)

	index := &cobra.Command{
		Use:   "index",
		Short: "List the variables on the index page",
		Args:  cobra.NoArgs,
		RunE:  runIndex,
	}
	index.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	index.Flags().StringVar(&flagSort, "sort", "", "Sort by: code, name or topic (default: index order)")
	index.Flags().StringVar(&flagTopic, "topic", "", "Only list variables in this topic")

	cats := &cobra.Command{
		Use:   "categories CODE",
		Short: "Extract and print the categories of one variable",
		Args:  cobra.ExactArgs(1),
		RunE:  runCategories,
	}
	cats.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cats.Flags().BoolVar(&flagValidateHeadings, "validate-headings", false, "Require Code/Category table headings")
	cats.Flags().BoolVar(&flagStrictASCII, "strict-ascii", false, "Fail on labels with non-ASCII text")

	ovr := &cobra.Command{
		Use:   "overrides",
		Short: "List the variables with override directives and their stages",
		Args:  cobra.NoArgs,
		RunE:  runOverrides,
	}

	diff := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Compare two dictionary files",
		Args:  cobra.ExactArgs(2),
		RunE:  runDiff,
	}
	diff.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	diff.Flags().BoolVar(&flagExitCode, "exit-code", false, "Exit with status 2 when the dictionaries differ")

	cmd.AddCommand(build, index, cats, ovr, diff)
	return cmd
}

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagOutput, "output", "", "Dictionary output path, '-' for stdout (default census-dict-2021.json)")
	cmd.Flags().BoolVar(&flagValidateHeadings, "validate-headings", false, "Require Code/Category table headings")
	cmd.Flags().BoolVar(&flagStrictASCII, "strict-ascii", false, "Fail on labels with non-ASCII text")
}

// loadConfig reads the config file, applies flags and configures logging
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	cfg.Merge(&config.Config{
		Fetch: config.FetchConfig{
			CacheDir: flagCacheDir,
			Refresh:  flagRefresh,
		},
		Build: config.BuildConfig{
			Overrides:        flagOverrides,
			Output:           flagOutput,
			ValidateHeadings: flagValidateHeadings,
			StrictASCII:      flagStrictASCII,
		},
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if flagVerbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, os.Stderr))

	return cfg, nil
}

func newFetcher(cfg *config.Config) (*scraper.Fetcher, error) {
	opts := scraper.Options{
		Refresh:       cfg.Fetch.Refresh,
		RatePerSecond: cfg.Fetch.RatePerSecond,
		MaxRetries:    cfg.Fetch.MaxRetries,
		Timeout:       cfg.Fetch.Timeout,
	}
	if cfg.Fetch.CacheDir != "" {
		cache, err := storage.NewPageCache(cfg.Fetch.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("initializing cache: %w", err)
		}
		cache.TTL = cfg.Fetch.CacheTTL
		opts.Cache = cache
	}
	return scraper.New(opts), nil
}

func newBuilder(cfg *config.Config, fetcher *scraper.Fetcher) (*dictionary.Builder, error) {
	registry, err := overrides.Load(cfg.Build.Overrides)
	if err != nil {
		return nil, fmt.Errorf("loading overrides: %w", err)
	}
	logger.Debug("overrides loaded", logger.Fields{"directives": registry.Len()})

	return dictionary.NewBuilder(fetcher, registry, categories.Options{
		ValidateHeadings: cfg.Build.ValidateHeadings,
		StrictASCII:      cfg.Build.StrictASCII,
	}), nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// runBuild is the main command logic
func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	builder, err := newBuilder(cfg, fetcher)
	if err != nil {
		return err
	}

	logger.Info("loading variables index", logger.Fields{"url": cfg.Source.IndexURL})
	vars, err := fetcher.LoadIndex(ctx, cfg.Source.IndexURL, cfg.Source.BaseURL)
	if err != nil {
		return fmt.Errorf("loading index: %w", err)
	}
	logger.Info("building dictionary", logger.Fields{"variables": len(vars)})

	dict, report, err := builder.Build(ctx, vars)
	if err != nil {
		return fmt.Errorf("building dictionary: %w", err)
	}

	if err := storage.SaveDictionary(cfg.Build.Output, dict); err != nil {
		return fmt.Errorf("saving dictionary: %w", err)
	}

	logger.Info("dictionary written", logger.Fields{
		"output":      cfg.Build.Output,
		"variables":   len(dict.Variables),
		"categorized": dict.CategorizedCount(),
		"extracted":   report.Count(dictionary.OutcomeExtracted),
		"substituted": report.Count(dictionary.OutcomeSubstituted),
		"skipped":     report.Count(dictionary.OutcomeSkipped),
		"failed":      report.Count(dictionary.OutcomeFailed),
	})

	if flagVerbose {
		return WriteSummary(os.Stderr, report, logger.GetMetricsSnapshot())
	}
	return nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(flagFormat)
	if err != nil {
		return err
	}
	order, err := parseSortOrder(flagSort)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	vars, err := fetcher.LoadIndex(ctx, cfg.Source.IndexURL, cfg.Source.BaseURL)
	if err != nil {
		return fmt.Errorf("loading index: %w", err)
	}

	vars = filterTopic(vars, flagTopic)
	sortVariables(vars, order)
	return WriteIndex(cmd.OutOrStdout(), vars, format)
}

func runCategories(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(flagFormat)
	if err != nil {
		return err
	}
	code := strings.ToUpper(strings.TrimSpace(args[0]))

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	builder, err := newBuilder(cfg, fetcher)
	if err != nil {
		return err
	}

	vars, err := fetcher.LoadIndex(ctx, cfg.Source.IndexURL, cfg.Source.BaseURL)
	if err != nil {
		return fmt.Errorf("loading index: %w", err)
	}

	index := &variable.Dictionary{Variables: vars}
	v := index.Find(code)
	if v == nil {
		return fmt.Errorf("variable not found: %s", code)
	}

	cats, outcome, err := builder.Categories(ctx, v)
	if err != nil {
		return fmt.Errorf("extracting categories for %s: %w", code, err)
	}
	return WriteCategories(cmd.OutOrStdout(), v, cats, outcome, format)
}

func runOverrides(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	registry, err := overrides.Load(cfg.Build.Overrides)
	if err != nil {
		return fmt.Errorf("loading overrides: %w", err)
	}
	return WriteOverrides(cmd.OutOrStdout(), registry)
}

func runDiff(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(flagFormat)
	if err != nil {
		return err
	}

	previous, err := storage.LoadDictionary(args[0])
	if err != nil {
		return fmt.Errorf("loading %s: %w", args[0], err)
	}
	current, err := storage.LoadDictionary(args[1])
	if err != nil {
		return fmt.Errorf("loading %s: %w", args[1], err)
	}

	result := variable.Diff(previous, current)
	if err := WriteDiff(cmd.OutOrStdout(), result, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if flagExitCode && !result.Empty() {
		os.Exit(ExitChanges)
	}
	return nil
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
