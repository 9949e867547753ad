package cli

import (
	"fmt"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sprite-ai/coderefine/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the configuration after merging defaults, the config file,
CODEREFINE_* environment variables and flags.

Use --env to list the supported environment variables instead.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().Bool("env", false, "list supported environment variables")
}

func runConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	showEnv, _ := cmd.Flags().GetBool("env")
	if showEnv {
		vars := config.ListEnvVars()
		names := make([]string, 0, len(vars))
		for name := range vars {
			names = append(names, name)
		}
		sort.Strings(names)

		table := tablewriter.NewTable(out,
			tablewriter.WithRendition(tw.Rendition{
				Borders: tw.Border{Left: tw.Off, Right: tw.Off, Top: tw.Off, Bottom: tw.Off},
				Settings: tw.Settings{
					Separators: tw.Separators{BetweenColumns: tw.Off},
				},
			}),
		)
		table.Header([]string{"Variable", "Description"})
		for _, name := range names {
			if err := table.Append([]string{name, vars[name]}); err != nil {
				return err
			}
		}
		return table.Render()
	}

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfgPath != "" {
		fmt.Fprintf(out, "# loaded from %s\n", a.cfgPath)
	} else {
		fmt.Fprintln(out, "# defaults (no config file found)")
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(a.cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}
