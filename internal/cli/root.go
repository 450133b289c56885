// Package cli implements the warden command line: a daemon launcher plus
// operator commands that talk to it over the HTTP control surface. Audit
// inspection works directly on the log file and needs no daemon.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var serverAddr string

var rootCmd = &cobra.Command{
	Use:   "warden",
	Short: "Bounded autonomy for automation engines",
	Long: "Sits between automation engines and the outside world: scores every\n" +
		"proposed action, enforces spending and content boundaries, auto-executes\n" +
		"what is safely in bounds, and queues the rest for a human.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", defaultAddr(),
		"Base URL of the warden daemon")
}

func defaultAddr() string {
	if v := os.Getenv("WARDEN_ADDR"); v != "" {
		return v
	}
	return "http://127.0.0.1:8787"
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
