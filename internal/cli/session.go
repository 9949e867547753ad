package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/coderefine/internal/logging"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Print the session id, creating it if needed",
	Long: `Print the session id sent with every request. The id is generated on
first use and kept in the session state file; history is grouped by it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		a.logger.Debug("session state", logging.FieldPath, a.cfg.Session.File)
		fmt.Fprintln(cmd.OutOrStdout(), a.sessions.GetOrCreate())
		return nil
	},
}
