package cli

import (
	"context"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/sprite-ai/coderefine/internal/logging"
)

var checkCmd = &cobra.Command{
	Use:   "check <files...>",
	Short: "Analyze files and output a report (non-interactive)",
	Long: `Analyze every file concurrently and output one report per file.
Useful for CI, pre-commit hooks, and piping into other tools.

Exit codes:
  0 - clean, no issues found
  1 - issues found (or a file could not be analyzed)
  2 - critical or high severity issues found`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringP("format", "f", "text", "output format: text, json, markdown, html")
	checkCmd.Flags().StringSlice("category", nil, "categories to list: bugs, security, performance, bestPractices, positives")
	checkCmd.Flags().IntP("jobs", "j", 0, "files analyzed at once (default from config)")
	checkCmd.Flags().Bool("no-progress", false, "hide the progress bar")
}

func runCheck(cmd *cobra.Command, args []string) error {
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
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	srcs := make([]source, len(args))
	for i, path := range args {
		srcs[i] = source{Path: path, Language: a.languageFor(cmd, path)}
	}

	var progress io.Writer = os.Stderr
	if noProgress {
		progress = io.Discard
	}

	reps := checkSources(cmd.Context(), a, srcs, progress)

	if err := writeReports(cmd.OutOrStdout(), f, reps, cats); err != nil {
		return err
	}

	if code := exitCode(reps); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// checkSources analyzes srcs with at most cfg.Check.Jobs in flight. Each
// source gets its own controller so analyses do not block one another.
// Reports keep the order of srcs.
func checkSources(ctx context.Context, a *app, srcs []source, progress io.Writer) []report {
	logger := logging.FromContext(ctx)
	reps := make([]report, len(srcs))
	bar := newTracker(progress, "Analyzing", len(srcs))

	p := pool.New().WithMaxGoroutines(a.cfg.Check.Jobs)
	for i, src := range srcs {
		p.Go(func() {
			defer func() { _ = bar.Add(1) }()

			code, err := readSource(src.Path, os.Stdin)
			if err != nil {
				reps[i] = report{Path: src.Path, Language: src.Language, Err: err}
				return
			}
			src.Code = code

			ctl := a.controller(logNotifier{logger: a.logger})
			rep, _ := analyzeSource(ctx, ctl, src, a.cfg.Analysis.Model, false, io.Discard)
			if rep.Err != nil {
				logger.Warn("analysis failed", logging.FieldPath, src.Path, logging.FieldError, rep.Err)
			} else {
				logger.Debug("analysis done",
					logging.FieldPath, src.Path,
					logging.FieldScore, rep.Result.OverallScore,
					logging.FieldCount, rep.issueCount(),
				)
			}
			reps[i] = rep
		})
	}
	p.Wait()

	_ = bar.Finish()
	_ = bar.Clear()
	return reps
}

// newTracker is a progress bar over a known number of files.
func newTracker(w io.Writer, label string, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
