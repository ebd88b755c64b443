// If you are AI: This is the main entrypoint for the roomlink client.
// It wires the cobra commands; run.go holds the process wiring.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

// main builds the root command and exits non-zero on error.
func main() {
	rootCmd := &cobra.Command{
		Use:   "roomlink",
		Short: "RTMP room client with supervised reconnection",
		Long: `roomlink keeps a primary RTMP session, and an optional restricted-area
secondary session, connected to a room server. Surfaced messages are
streamed over a websocket, and health and metrics are served over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		runCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
