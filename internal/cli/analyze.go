package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/sprite-ai/coderefine/internal/logging"
	"github.com/sprite-ai/coderefine/internal/model"
	"github.com/sprite-ai/coderefine/internal/tui"
	"github.com/sprite-ai/coderefine/internal/workflow"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|->",
	Short: "Analyze one source and print the review",
	Long: `Send one source to the analysis service and print the review.
Pass "-" to read the code from stdin.

Examples:
  coderefine analyze app.py
  coderefine analyze app.py --category security -f markdown
  cat main.go | coderefine analyze - -l go --format json
  coderefine analyze app.py --rewrite --write`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringP("format", "f", "text", "output format: text, json, markdown, html")
	analyzeCmd.Flags().StringSlice("category", nil, "categories to list: bugs, security, performance, bestPractices, positives")
	analyzeCmd.Flags().Bool("rewrite", false, "also request optimized code")
	analyzeCmd.Flags().BoolP("write", "w", false, "write the optimized code back to the file (implies --rewrite)")
	analyzeCmd.Flags().Bool("no-progress", false, "hide the progress spinner")
}

// source is code to analyze and where it came from.
type source struct {
	Path     string
	Code     string
	Language model.LanguageTag
}

func readSource(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	formatFlag, _ := cmd.Flags().GetString("format")
	f, err := parseFormat(formatFlag)
	if err != nil {
		return err
	}
	catNames, _ := cmd.Flags().GetStringSlice("category")
	cats, err := parseCategories(catNames)
	if err != nil {
		return err
	}
	rewrite, _ := cmd.Flags().GetBool("rewrite")
	write, _ := cmd.Flags().GetBool("write")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	path := args[0]
	if write && path == "-" {
		return errors.New("--write needs a file argument")
	}

	code, err := readSource(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	src := source{Path: path, Code: code, Language: a.languageFor(cmd, path)}
	ctl := a.controller(logNotifier{logger: a.logger})

	var progress io.Writer = os.Stderr
	if noProgress {
		progress = io.Discard
	}

	rep, rewriteErr := analyzeSource(cmd.Context(), ctl, src, a.cfg.Analysis.Model, rewrite || write, progress)
	if rep.Err != nil {
		return rep.Err
	}

	if err := writeReports(cmd.OutOrStdout(), f, []report{rep}, cats); err != nil {
		return err
	}
	if rewriteErr != nil {
		return fmt.Errorf("rewrite: %w", rewriteErr)
	}

	if write && rep.Rewrite != nil {
		out := tui.Outcome{Path: path, Language: src.Language, Original: code, Code: rep.Rewrite.OptimizedCode, Accepted: 1}
		if err := out.WriteBack(); err != nil {
			return err
		}
		a.logger.Info("wrote optimized code", logging.FieldPath, path)
	}
	return nil
}

// analyzeSource runs an analysis, and optionally a rewrite, through ctl
// while a spinner on progress shows the status rotation. A failed rewrite
// is returned separately so the analysis can still be reported.
func analyzeSource(ctx context.Context, ctl *workflow.Controller, src source, aiModel string, rewrite bool, progress io.Writer) (report, error) {
	rep := report{Path: src.Path, Language: src.Language}
	req := model.AnalysisRequest{Code: src.Code, Language: src.Language, Model: aiModel}

	bar := newSpinner(progress, "Analyzing "+rep.Name())
	ctl.Subscribe(func(s workflow.State) {
		if s.Status != "" {
			bar.Describe(s.Status)
		}
	})
	defer func() {
		_ = bar.Finish()
		_ = bar.Clear()
	}()

	res, err := ctl.Analyze(ctx, req)
	if err != nil {
		rep.Err = err
		return rep, nil
	}
	rep.Result = res

	if !rewrite {
		return rep, nil
	}
	bar.Describe("Optimizing code...")
	rw, err := ctl.Rewrite(ctx, req)
	if err != nil {
		return rep, err
	}
	rep.Rewrite = rw
	return rep, nil
}

// newSpinner is a progress indicator for work of unknown length.
func newSpinner(w io.Writer, label string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
}
