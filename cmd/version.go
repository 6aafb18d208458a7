package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Actual version and commit can be specified in build command:
// go build -ldflags "-X github.com/spigell/crna-fit/cmd.version=v1.2.0 -X github.com/spigell/crna-fit/cmd.commit=$(git rev-parse --short HEAD)"
var (
	version = "unknown"
	commit  = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version, commit and Go runtime",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), versionString())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func versionString() string {
	return fmt.Sprintf("%s version: %s (commit %s, %s %s/%s)", app, version, commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
