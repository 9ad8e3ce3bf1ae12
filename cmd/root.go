// Package cmd provides the CLI commands for gitdeps.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/gitdeps/internal/domain"
)

// ErrDependencyNotFound is returned after all names are processed when at
// least one local dependency was not found in any search path.
var ErrDependencyNotFound = errors.New("dependency not found")

// Logger defines the logging interface used by the command.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// Dependencies holds all injectable dependencies for the command.
// This enables testing by allowing mock implementations to be injected.
type Dependencies struct {
	// LoggerFactory creates a logger instance.
	LoggerFactory func() Logger

	// ConfigLoader loads application configuration.
	ConfigLoader func() (*AppConfig, error)

	// GitClientFactory creates the git client used for clone and fetch.
	GitClientFactory func(cfg *AppConfig, log Logger) domain.GitClient

	// LocatorFactory creates a Locator over the given git client.
	LocatorFactory func(cfg *AppConfig, gitClient domain.GitClient, log Logger) (domain.Locator, error)

	// RecorderFactory creates the resolution audit recorder.
	// It returns (nil, nil) when auditing is disabled.
	RecorderFactory func(ctx context.Context, cfg *AppConfig, log Logger) (domain.ResolutionRecorder, error)

	// OutputWriterFactory creates an OutputWriter.
	OutputWriterFactory func() domain.OutputWriter

	// Stdout is the writer for standard output (for resolved paths).
	Stdout io.Writer

	// Stderr is the writer for standard error (for warnings/errors).
	Stderr io.Writer
}

// AppConfig holds application configuration loaded by ConfigLoader.
type AppConfig struct {
	// SearchPaths are the ordered roots scanned for local dependencies.
	SearchPaths []string

	// CacheRoot is the directory holding cloned working copies.
	CacheRoot string

	// Layout is the working-copy naming rule.
	Layout domain.Layout

	// AllowStale returns stale working copies when a fetch fails.
	AllowStale bool

	// Credentials authenticate HTTP git remotes.
	Credentials domain.Credentials

	// ClickHouseConfig is passed to the RecorderFactory. Nil disables auditing.
	ClickHouseConfig any

	// AuditTable is the ClickHouse table resolution records are written to.
	AuditTable string

	// LogLevel is the log level setting.
	LogLevel string

	// LogAppName is the application name for logging.
	LogAppName string
}

// Command-line flags.
var (
	searchPaths []string
	cacheRoot   string
	layout      string
	allowStale  bool
	verbose     bool
)

// defaultDeps holds the production dependencies.
// This is set by the production wiring in main or via SetDefaultDependencies.
var defaultDeps *Dependencies

// SetDefaultDependencies sets the default dependencies for production use.
// This should be called from main() before Execute().
func SetDefaultDependencies(deps *Dependencies) {
	defaultDeps = deps
}

// NewRootCmd creates the root command for gitdeps.
func NewRootCmd() *cobra.Command {
	return NewRootCmdWithDeps(defaultDeps)
}

// NewRootCmdWithDeps creates the root command with explicit dependencies.
// This is the primary constructor that enables testing via dependency injection.
func NewRootCmdWithDeps(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gitdeps [flags] NAME...",
		Short: "Resolve build dependencies to local directories",
		Long: `gitdeps resolves named build dependencies to local directories.

A name that is a git URL (http, https, ssh, git, file) is cloned into the
cache root on first use and fetched on every resolution; the working copy
path is printed. Any other name is looked up as a subdirectory of the
search paths, in order, and the first match is printed.

Prefix a name with "git+" to force git resolution or with "path:" to force
a search-path lookup.

Examples:
  # Resolve a library from local search paths
  gitdeps -s ./libs -s /opt/libs widget

  # Clone or update a remote dependency
  gitdeps https://github.com/org/widget.git

  # Keep going with a stale copy when the remote is unreachable
  gitdeps --allow-stale https://github.com/org/widget.git`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocate(cmd, args, deps)
		},
	}

	rootCmd.Flags().StringArrayVarP(&searchPaths, "search-path", "s", nil,
		"Directory to search for local dependencies (repeatable, replaces configured paths)")
	rootCmd.Flags().StringVar(&cacheRoot, "cache-root", "",
		"Directory holding cloned working copies (default ./"+domain.DefaultCacheDirName+")")
	rootCmd.Flags().StringVar(&layout, "layout", string(domain.LayoutBasename),
		"Working copy naming: basename or hashed")
	rootCmd.Flags().BoolVar(&allowStale, "allow-stale", false,
		"Use an existing working copy when its fetch fails")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose/debug logging")

	return rootCmd
}

// runLocate resolves every name with injected dependencies.
func runLocate(cmd *cobra.Command, args []string, deps *Dependencies) error {
	if deps == nil {
		return errors.New("dependencies not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	stderr := deps.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	// Set log level based on verbose flag (best-effort)
	if verbose {
		if err := os.Setenv("LOG_LEVEL", "debug"); err != nil {
			writeWarningf(stderr, "warning: could not set log level: %v\n", err)
		}
	}

	log := deps.LoggerFactory()

	cfg, err := deps.ConfigLoader()
	if err != nil {
		log.Error(ctx, "failed to load configuration", err, nil)
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	log.Info(ctx, "starting gitdeps", map[string]interface{}{
		"names":        len(args),
		"search_paths": cfg.SearchPaths,
		"cache_root":   cfg.CacheRoot,
		"layout":       string(cfg.Layout),
		"allow_stale":  cfg.AllowStale,
	})

	gitClient := deps.GitClientFactory(cfg, log)

	locator, err := deps.LocatorFactory(cfg, gitClient, log)
	if err != nil {
		log.Error(ctx, "failed to initialize locator", err, nil)
		return fmt.Errorf("initialization error: %w", err)
	}

	recorder := openRecorder(ctx, deps, cfg, log)
	if recorder != nil {
		defer func() {
			if closeErr := recorder.Close(); closeErr != nil {
				log.Warn(ctx, "failed to close resolution recorder", map[string]interface{}{
					"error": closeErr.Error(),
				})
			}
		}()
	}

	writer := deps.OutputWriterFactory()

	var missing []string
	for _, name := range args {
		start := time.Now()
		result, err := locator.Locate(ctx, name)
		record(ctx, recorder, log, name, result, err, time.Since(start))

		if err != nil {
			log.Error(ctx, "failed to resolve dependency", err, map[string]interface{}{
				"name":    name,
				"failure": string(domain.FailureKindOf(err)),
			})
			return describeError(name, err)
		}

		if result == nil {
			log.Warn(ctx, "dependency not found", map[string]interface{}{
				"name": name,
			})
			writeWarningf(stderr, "gitdeps: %s not found in search paths\n", name)
			missing = append(missing, name)
			continue
		}

		if result.Stale {
			writeWarningf(stderr, "warning: %s could not be fetched; using existing working copy\n", name)
		}

		if err := writer.WritePath(result.Path); err != nil {
			log.Error(ctx, "failed to write output", err, nil)
			return fmt.Errorf("output error: %w", err)
		}

		log.Info(ctx, "dependency resolved", map[string]interface{}{
			"name":   name,
			"kind":   string(result.Kind),
			"path":   result.Path,
			"cloned": result.Cloned,
			"stale":  result.Stale,
		})
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrDependencyNotFound, strings.Join(missing, ", "))
	}
	return nil
}

// applyFlags overrides configuration with flags set on the command line.
func applyFlags(cmd *cobra.Command, cfg *AppConfig) error {
	flags := cmd.Flags()
	if flags.Changed("search-path") {
		cfg.SearchPaths = append([]string(nil), searchPaths...)
	}
	if flags.Changed("cache-root") {
		cfg.CacheRoot = cacheRoot
	}
	if flags.Changed("layout") {
		cfg.Layout = domain.Layout(layout)
	}
	if flags.Changed("allow-stale") {
		cfg.AllowStale = allowStale
	}
	if cfg.Layout == "" {
		cfg.Layout = domain.LayoutBasename
	}
	if !cfg.Layout.Valid() {
		return fmt.Errorf("invalid --layout %q: expected %s or %s",
			cfg.Layout, domain.LayoutBasename, domain.LayoutHashed)
	}
	return nil
}

// openRecorder creates the audit recorder. Failures disable auditing.
func openRecorder(ctx context.Context, deps *Dependencies, cfg *AppConfig, log Logger) domain.ResolutionRecorder {
	if deps.RecorderFactory == nil {
		return nil
	}
	recorder, err := deps.RecorderFactory(ctx, cfg, log)
	if err != nil {
		log.Warn(ctx, "resolution auditing disabled", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	return recorder
}

// record writes an audit row. Recording failures are logged and ignored.
func record(
	ctx context.Context,
	recorder domain.ResolutionRecorder,
	log Logger,
	name string,
	result *domain.Resolution,
	resolveErr error,
	elapsed time.Duration,
) {
	if recorder == nil {
		return
	}

	row := domain.ResolutionRecord{
		Name:       name,
		Found:      result != nil,
		Failure:    domain.FailureKindOf(resolveErr),
		DurationMS: elapsed.Milliseconds(),
		ResolvedAt: time.Now(),
	}
	if result != nil {
		row.Kind = result.Kind
		row.Path = result.Path
		row.URL = result.URL
		row.Cloned = result.Cloned
		row.Stale = result.Stale
	}
	if resolveErr != nil {
		row.Error = resolveErr.Error()
	}

	if err := recorder.Record(ctx, row); err != nil {
		log.Warn(ctx, "failed to record resolution", map[string]interface{}{
			"name":  name,
			"error": err.Error(),
		})
	}
}

// describeError adds operator guidance to a resolution failure.
func describeError(name string, err error) error {
	var repoErr *domain.RepositoryError
	switch {
	case errors.As(err, &repoErr):
		hint := ""
		switch repoErr.Kind {
		case domain.FailureAuth:
			hint = "; check GITDEPS_GIT_TOKEN or Vault credentials"
		case domain.FailureNetwork:
			hint = "; the remote may be unreachable, retry later or use --allow-stale"
		case domain.FailureCorrupt:
			hint = "; delete " + repoErr.Path + " to force a fresh clone"
		}
		return fmt.Errorf("failed to resolve %s (%s%s): %w", name, repoErr.Kind, hint, err)
	case errors.Is(err, domain.ErrWorkingCopyConflict):
		return fmt.Errorf("failed to resolve %s (use --layout hashed to keep both): %w", name, err)
	}
	return fmt.Errorf("failed to resolve %s: %w", name, err)
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// writeWarningf writes a warning message to the given writer.
// This is a best-effort operation; errors are intentionally ignored
// because there is no recovery action if stderr writes fail.
func writeWarningf(w io.Writer, format string, args ...any) {
	_, err := fmt.Fprintf(w, format, args...)
	if err != nil {
		return
	}
}
