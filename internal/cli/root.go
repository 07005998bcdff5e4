// Package cli provides the command-line interface for csvloc.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/csvloc/internal/config"
	"github.com/JonMunkholm/csvloc/internal/core"
	"github.com/JonMunkholm/csvloc/internal/logging"
	"github.com/JonMunkholm/csvloc/internal/translation"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var Version = "0.1.0"

// Defaults for the global flags.
const (
	DefaultProjectFile = "csvloc.yaml"
	DefaultStoreDriver = translation.DialectSQLite
	DefaultStoreURL    = "csvloc.db"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	projectFile string
	storeDriver string
	storeURL    string
	logLevel    string
	logFormat   string
}

// env carries what a command needs once the project is loaded.
type env struct {
	project *config.Project
	service *core.Service
	store   translation.Store
	logger  *slog.Logger
	root    string
}

func (e *env) Close() error {
	return e.store.Close()
}

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "csvloc",
		Short: "Localize delimited text files",
		Long: `csvloc extracts the localizable cells of CSV and TSV files into a
translation store, writes localized copies of those files, and merges
updated files into existing ones by key.

File handling is configured per glob pattern in a project file
(default: ./csvloc.yaml).`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.projectFile, "config", DefaultProjectFile, "project file")
	pf.StringVar(&opts.storeDriver, "store-driver", DefaultStoreDriver, "translation store driver (memory|sqlite|postgres)")
	pf.StringVar(&opts.storeURL, "store-url", DefaultStoreURL, "translation store DSN")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	pf.StringVar(&opts.logFormat, "log-format", "text", "log format (text|json)")
	pf.String("source-locale", config.DefaultSourceLocale, "locale of the source files")
	pf.StringSlice("locales", nil, "target locales, comma-separated")
	pf.String("project", "", "project name recorded on extracted resources")

	_ = rootCmd.RegisterFlagCompletionFunc("store-driver", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"memory", translation.DialectSQLite, translation.DialectPostgres}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newExtractCommand(opts))
	rootCmd.AddCommand(newLocalizeCommand(opts))
	rootCmd.AddCommand(newMergeCommand(opts))
	rootCmd.AddCommand(newShowCommand(opts))
	rootCmd.AddCommand(newTranslationsCommand(opts))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", core.FormatUserError(err))
		return err
	}
	return nil
}

// setup loads the project, opens the store and builds the service.
// The returned env must be closed.
func setup(cmd *cobra.Command, opts *globalOptions) (*env, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger := logging.New(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)
	slog.SetDefault(logger)

	project, err := config.LoadProject(opts.projectFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if project.File != "" {
		logger.Debug("project loaded", "file", project.File)
	}

	registry, err := core.NewRegistryFromProject(project)
	if err != nil {
		return nil, err
	}

	store, err := translation.Open(ctx, opts.storeDriver, opts.storeURL)
	if err != nil {
		return nil, err
	}

	root := ""
	if project.File != "" {
		root = absPath(filepath.Dir(project.File))
	}

	service, err := core.NewService(core.Options{
		Registry:     registry,
		Store:        store,
		Project:      project.Name,
		SourceLocale: project.SourceLocale,
		Locales:      project.Locales,
		Root:         root,
		Logger:       logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &env{project: project, service: service, store: store, logger: logger, root: root}, nil
}

// path resolves a command line argument. Inside a project, paths are made
// absolute so globs match relative to the project directory.
func (e *env) path(arg string) string {
	if e.root == "" {
		return arg
	}
	return absPath(arg)
}

// files returns the arguments resolved with path, or every file the
// service discovers under the project when there are none.
func (e *env) files(cmd *cobra.Command, args []string) ([]string, error) {
	if len(args) == 0 {
		files, err := e.service.Discover(cmd.Context(), e.root)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, errors.New("no matching files found")
		}
		return files, nil
	}

	files := make([]string, len(args))
	for i, arg := range args {
		files[i] = e.path(arg)
	}
	return files, nil
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
