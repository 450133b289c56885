package cli

import (
	"github.com/spf13/cobra"

	"github.com/avrelio/warden/internal/engine"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show full operational stats as JSON",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	var s engine.Stats
	if err := apiGet("/v1/stats", &s); err != nil {
		return err
	}
	printJSON(s)
	return nil
}
