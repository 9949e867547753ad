package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/sprite-ai/coderefine/internal/history"
	"github.com/sprite-ai/coderefine/internal/notify"
	"github.com/sprite-ai/coderefine/internal/view"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List or clear past analyses of this session",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().Bool("clear", false, "delete the session's history")
}

func runHistory(cmd *cobra.Command, args []string) error {
	clear, _ := cmd.Flags().GetBool("clear")

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	hist := history.New(a.client, a.sessions.GetOrCreate, printNotifier{w: cmd.ErrOrStderr()}, a.logger)
	if clear {
		return hist.Clear(cmd.Context())
	}
	return listHistory(cmd.Context(), cmd.OutOrStdout(), hist, time.Local)
}

func listHistory(ctx context.Context, w io.Writer, hist *history.Sync, loc *time.Location) error {
	rows := view.ProjectHistory(hist.Load(ctx), loc)
	if len(rows) == 0 {
		color.New(color.Faint).Fprintln(w, view.EmptyHistoryMessage)
		return nil
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{
				Left:   tw.Off,
				Right:  tw.Off,
				Top:    tw.Off,
				Bottom: tw.Off,
			},
			Settings: tw.Settings{
				Separators: tw.Separators{
					BetweenColumns: tw.Off,
				},
			},
		}),
	)

	table.Header([]string{"Score", "Grade", "Language", "Issues", "When", "Summary"})
	for _, r := range rows {
		if err := table.Append([]string{
			bandColor(r.Band).Sprint(r.Score),
			r.Grade,
			r.Language,
			r.Issues,
			r.Time,
			truncateRunes(r.Summary, 60),
		}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d analyses\n", len(rows))
	return nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// printNotifier writes toasts as single terminal lines.
type printNotifier struct {
	w io.Writer
}

func (n printNotifier) Push(message string, kind notify.Kind) notify.Toast {
	c := color.New(color.FgCyan)
	switch kind {
	case notify.KindSuccess:
		c = color.New(color.FgGreen)
	case notify.KindError:
		c = color.New(color.FgRed)
	}
	c.Fprintf(n.w, "%s %s\n", kind.Icon(), message)
	return notify.Toast{Message: message, Kind: kind, CreatedAt: time.Now()}
}
