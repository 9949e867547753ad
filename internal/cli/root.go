// Package cli wires the coderefine commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sprite-ai/coderefine/internal/api"
	"github.com/sprite-ai/coderefine/internal/config"
	"github.com/sprite-ai/coderefine/internal/logging"
	"github.com/sprite-ai/coderefine/internal/model"
	"github.com/sprite-ai/coderefine/internal/notify"
	"github.com/sprite-ai/coderefine/internal/session"
	"github.com/sprite-ai/coderefine/internal/workflow"
)

var rootCmd = &cobra.Command{
	Use:   "coderefine [file]",
	Short: "AI code review in the terminal",
	Long: `coderefine sends source code to an analysis service and shows the
review: bugs, security findings, performance notes, best practices,
positives and quality metrics. It can also request an optimized rewrite.

Without a subcommand it opens the interactive review surface.

Examples:
  coderefine                      # empty editor with a sample
  coderefine app.py               # review a file interactively
  coderefine analyze app.py       # print a report
  coderefine check src/*.go       # batch review for CI`,
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: applyColor,
	RunE:              runUI,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", "", "path to config file")
	pf.String("base-url", "", "analysis service base URL")
	pf.StringP("model", "m", "", "model identifier sent with each request")
	pf.StringP("language", "l", "", "language of the code (default: inferred from the file)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-file", "", "write logs to this file")
	pf.String("session-file", "", "path of the persisted session state")
	pf.String("color", "auto", "colorize output: auto, always, never")

	addUIFlags(rootCmd)

	rootCmd.AddCommand(uiCmd, analyzeCmd, checkCmd, historyCmd, sessionCmd, configCmd, versionCmd)
}

// Exit codes for coderefine.
const (
	// ExitSuccess means no findings.
	ExitSuccess = 0

	// ExitIssues means findings were reported, or a command failed.
	ExitIssues = 1

	// ExitHighSeverity means at least one critical or high finding.
	ExitHighSeverity = 2
)

// ExitError carries a process exit code. Err, when set, is printed.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute runs the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return nil
	}

	var ee *ExitError
	if !errors.As(err, &ee) || ee.Err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// ExitCode maps an Execute error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ExitIssues
}

func applyColor(cmd *cobra.Command, args []string) error {
	mode, _ := cmd.Flags().GetString("color")
	switch mode {
	case "auto", "":
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color %q (want auto, always or never)", mode)
	}
	return nil
}

// app holds the collaborators shared by every command.
type app struct {
	cfg      *config.Config
	cfgPath  string
	logger   *log.Logger
	client   *api.Client
	sessions *session.Store

	closers []io.Closer
}

// newApp resolves configuration and builds the collaborators. In
// interactive mode logs go to the log file or nowhere, never the terminal.
func newApp(cmd *cobra.Command, interactive bool) (*app, error) {
	explicit, _ := cmd.Flags().GetString("config")
	wd, _ := os.Getwd()

	cfg, path, err := config.Resolve(explicit, wd)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &app{cfg: cfg, cfgPath: path}

	switch {
	case cfg.Log.File != "":
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		a.closers = append(a.closers, f)
		a.logger = logging.NewWithWriter(f, cfg.Log.Level)
	case interactive:
		a.logger = logging.NewWithWriter(io.Discard, cfg.Log.Level)
	default:
		a.logger = logging.New(cfg.Log.Level)
	}
	logging.SetDefault(a.logger)
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))

	if path != "" {
		a.logger.Debug("loaded config", logging.FieldConfig, path)
	}

	a.client = api.New(cfg.Server.BaseURL,
		api.WithTimeout(cfg.RequestTimeout()),
		api.WithLogger(a.logger),
	)
	a.sessions = session.NewStore(session.NewFileKV(cfg.Session.File), a.logger)

	return a, nil
}

// applyFlags overrides config values with explicitly set flags.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	set := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}

	set("base-url", &cfg.Server.BaseURL)
	set("model", &cfg.Analysis.Model)
	set("language", &cfg.Analysis.Language)
	set("log-level", &cfg.Log.Level)
	set("log-file", &cfg.Log.File)
	set("session-file", &cfg.Session.File)

	if flags.Lookup("jobs") != nil && flags.Changed("jobs") {
		jobs, err := flags.GetInt("jobs")
		if err != nil {
			return err
		}
		cfg.Check.Jobs = jobs
	}
	return nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
}

// controller builds a workflow controller over the shared client and
// session store.
func (a *app) controller(notes notify.Notifier) *workflow.Controller {
	return workflow.New(a.client, a.sessions, notes, workflow.WithLogger(a.logger))
}

// languageFor picks the language of a source: an explicit --language
// wins, then the file extension, then the configured default.
func (a *app) languageFor(cmd *cobra.Command, path string) model.LanguageTag {
	if cmd.Flags().Changed("language") {
		return a.cfg.Language()
	}
	if tag, ok := model.LanguageForFile(path); ok {
		return tag
	}
	return a.cfg.Language()
}

// logNotifier records toasts in the log for headless commands, where
// results and errors are printed directly.
type logNotifier struct {
	logger *log.Logger
}

func (n logNotifier) Push(message string, kind notify.Kind) notify.Toast {
	n.logger.Debug("notification", logging.FieldKind, kind, "message", message)
	return notify.Toast{Message: message, Kind: kind}
}
