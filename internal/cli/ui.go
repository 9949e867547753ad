package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/coderefine/internal/history"
	"github.com/sprite-ai/coderefine/internal/logging"
	"github.com/sprite-ai/coderefine/internal/notify"
	"github.com/sprite-ai/coderefine/internal/tui"
)

var uiCmd = &cobra.Command{
	Use:   "ui [file]",
	Short: "Open the interactive review surface",
	Long: `Open the interactive TUI. An optional file is loaded into the editor;
its language is inferred from the extension unless --language is given.

Examples:
  coderefine ui                   # start from a sample
  coderefine ui app.py            # review a file
  coderefine ui app.py --write    # save accepted optimized code on exit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUI,
}

func init() {
	addUIFlags(uiCmd)
}

func addUIFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("write", "w", false, "write the editor contents back to the file on exit")
}

func runUI(cmd *cobra.Command, args []string) error {
	write, _ := cmd.Flags().GetBool("write")

	var path, code string
	if len(args) == 1 {
		path = args[0]
		if path == "-" {
			return errors.New("the interactive surface cannot read from stdin; use analyze instead")
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		code = string(data)
	} else if write {
		return errors.New("--write needs a file argument")
	}

	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	notes := notify.New()
	ctl := a.controller(notes)
	hist := history.New(a.client, ctl.SessionID, notes, a.logger)

	opts := tui.Options{
		Code:     code,
		Language: a.languageFor(cmd, path),
		Model:    a.cfg.Analysis.Model,
		Path:     path,
	}
	a.logger.Info("starting interactive session",
		logging.FieldPath, path,
		logging.FieldLanguage, opts.Language,
	)

	outcome, err := tui.Run(cmd.Context(), tui.Deps{
		Controller: ctl,
		History:    hist,
		Notes:      notes,
		Logger:     a.logger,
	}, opts)
	if err != nil {
		return err
	}

	if path == "" {
		return nil
	}
	fmt.Fprintln(os.Stderr, outcome.Summary())

	if write && outcome.Changed() {
		if err := outcome.WriteBack(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	}
	return nil
}
