package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the coderefine build",
	Long: `Print the coderefine release, the commit it was built from and the
build date. Binaries installed with "go install" report their module
version. Use --short for the bare version, e.g. in scripts that pin the
client against a service release.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if short, _ := cmd.Flags().GetBool("short"); short {
			fmt.Fprintln(out, buildVersion())
			return
		}
		fmt.Fprintf(out, "coderefine %s (commit %s, built %s)\n", buildVersion(), commit, date)
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			fmt.Fprintf(out, "%s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		}
	},
}

func init() {
	versionCmd.Flags().Bool("short", false, "print only the version")
	versionCmd.Flags().BoolP("verbose", "v", false, "also print the Go toolchain and platform")
}

// buildVersion prefers the ldflags version, then the module version.
func buildVersion() string {
	if version != "dev" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return version
}
