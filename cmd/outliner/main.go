package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hylla/outliner/internal/adapters/storage/sqlite"
	"github.com/hylla/outliner/internal/app"
	"github.com/hylla/outliner/internal/config"
	"github.com/hylla/outliner/internal/platform"
	"github.com/hylla/outliner/internal/tui"
)

// version is stamped at build time.
var version = "dev"

// program is the part of tea.Program the root command drives.
type program interface {
	Run() (tea.Model, error)
}

// programFactory builds the TUI program. Tests replace it.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run executes the command line in args.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

// newRootCommand builds the command tree.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{appName: platform.DefaultAppName, devMode: version == "dev"}
	if envDev, ok := parseBoolEnv("OUTLINER_DEV_MODE"); ok {
		opts.devMode = envDev
	}
	if envApp := strings.TrimSpace(os.Getenv("OUTLINER_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}

	root := &cobra.Command{
		Use:           "outliner",
		Short:         "Hierarchical sheets of traits, skills and equipment",
		Long:          "outliner keeps character sheets as sortable outlines of rows and columns.\nRun without a command to open the interactive outline view.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, stderr, true, func(rt *session) error {
				return runTUI(rt)
			})
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		newPathsCommand(opts),
		newSheetsCommand(opts, stderr),
		newNewSheetCommand(opts, stderr),
		newRenameSheetCommand(opts, stderr),
		newDeleteSheetCommand(opts, stderr),
		newAddCommand(opts, stderr),
		newTreeCommand(opts, stderr),
		newSortCommand(opts, stderr),
		newExportCommand(opts, stderr),
		newImportCommand(opts, stderr),
		newServeCommand(opts, stderr),
	)
	return root
}

// session is the wired state a command runs against.
type session struct {
	cfg    config.Config
	logger *runtimeLogger
	svc    *app.Service
}

// resolvePaths resolves platform paths for opts.
func resolvePaths(opts *globalOptions) (platform.Paths, error) {
	return platform.DefaultPathsWithOptions(platform.Options{
		AppName: opts.appName,
		DevMode: opts.devMode,
	})
}

// withSession loads config, opens logging and storage, runs fn and closes
// everything again. quietConsole keeps the terminal free of log lines while
// the TUI owns it.
func withSession(cmd *cobra.Command, opts *globalOptions, stderr io.Writer, quietConsole bool, fn func(*session) error) error {
	paths, err := resolvePaths(opts)
	if err != nil {
		return err
	}

	configPath := opts.configPath
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("OUTLINER_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	dbPath := strings.TrimSpace(opts.dbPath)
	dbOverridden := dbPath != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("OUTLINER_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}

	logDir := paths.ResolveLogDir(cfg.Logging.DevFile.Dir)
	logger, err := newRuntimeLogger(stderr, opts.appName, opts.devMode, logDir, cfg.Logging, time.Now)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	if quietConsole {
		logger.SetConsoleEnabled(false)
	}
	defer func() {
		if closeErr := logger.Close(); closeErr != nil && !quietConsole {
			_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", closeErr)
		}
	}()

	command := cmd.Name()
	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		return fmt.Errorf("open sqlite repository: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			logger.Warn("sqlite close failed", "db_path", cfg.Database.Path, "err", closeErr)
		}
	}()
	logger.Debug("sqlite repository ready", "db_path", cfg.Database.Path)

	svc := app.NewService(repo, uuid.NewString, nil, app.ServiceConfig{
		IndentWidth: cfg.Outline.IndentWidth,
		HideIndent:  !cfg.Outline.ShowIndent,
		UndoLimit:   cfg.Undo.Limit,
		Logger:      logger,
	})

	rt := &session{cfg: cfg, logger: logger, svc: svc}
	logger.Info("command flow start", "command", command)
	if err := fn(rt); err != nil {
		logger.Error("command flow failed", "command", command, "err", err)
		return err
	}
	logger.Info("command flow complete", "command", command)
	return nil
}

// runTUI opens the interactive outline view.
func runTUI(rt *session) error {
	m := tui.NewModel(rt.svc, tuiOptions(rt.cfg)...)
	rt.logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		return fmt.Errorf("run tui program: %w", err)
	}
	return nil
}

// tuiOptions maps config values onto model options.
func tuiOptions(cfg config.Config) []tui.Option {
	return []tui.Option{
		tui.WithKeyConfig(tui.KeyConfig{
			Undo:   cfg.Keys.Undo,
			Redo:   cfg.Keys.Redo,
			Filter: cfg.Keys.Filter,
			Copy:   cfg.Keys.Copy,
			Save:   cfg.Keys.Save,
		}),
		tui.WithLayoutConfig(tui.LayoutConfig{
			DividerWidth: cfg.Outline.DividerWidth,
			RowHeight:    cfg.Outline.RowHeight,
		}),
		tui.WithShowNotes(cfg.UI.ShowNotes),
		tui.WithConfirmDelete(cfg.UI.ConfirmDelete),
	}
}

// parseBoolEnv reads a boolean environment variable.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
