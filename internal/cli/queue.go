package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avrelio/warden/internal/approval"
)

var queueJSON bool

func init() {
	rootCmd.AddCommand(queueCmd)
	queueCmd.Flags().BoolVar(&queueJSON, "json", false, "Output as JSON")
}

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List pending approval requests",
	Long:  "Shows pending requests ordered critical→high→medium→low, oldest first within a priority.",
	RunE:  runQueue,
}

func runQueue(cmd *cobra.Command, args []string) error {
	var resp struct {
		Pending []*approval.Request `json:"pending"`
	}
	if err := apiGet("/v1/queue", &resp); err != nil {
		return err
	}

	if queueJSON {
		printJSON(resp.Pending)
		return nil
	}

	if len(resp.Pending) == 0 {
		fmt.Println("No pending approvals.")
		return nil
	}

	fmt.Printf("%-36s %-9s %-12s %-14s %-6s %s\n",
		"ID", "PRIORITY", "CATEGORY", "TYPE", "RISK", "EXPIRES")
	for _, r := range resp.Pending {
		fmt.Printf("%-36s %-9s %-12s %-14s %-6d %s\n",
			r.ID,
			r.Priority,
			r.Action.Category,
			truncate(r.Action.Type, 14),
			r.Decision.Assessment.Score,
			r.ExpiresAt.Format("Jan 02 15:04"),
		)
	}
	return nil
}
