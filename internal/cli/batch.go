package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avrelio/warden/internal/approval"
)

var (
	batchSafe     bool
	batchMaxRisk  string
	batchCategory string
	batchFeedback string
)

func init() {
	rootCmd.AddCommand(batchApproveCmd)
	batchApproveCmd.Flags().BoolVar(&batchSafe, "safe", false, "Approve only safe and low risk requests")
	batchApproveCmd.Flags().StringVar(&batchMaxRisk, "max-risk", "", "Approve requests at or below this risk level")
	batchApproveCmd.Flags().StringVar(&batchCategory, "category", "", "Approve requests from this category only")
	batchApproveCmd.Flags().StringVar(&batchFeedback, "feedback", "", "Optional note recorded with each approval")
}

var batchApproveCmd = &cobra.Command{
	Use:   "batch-approve",
	Short: "Approve and execute every pending request matching the filters",
	Long: "Approves all pending requests matching the given filters in one pass.\n" +
		"With no filters, everything pending is approved. Each action executes\n" +
		"individually; one failure does not stop the batch.",
	RunE: runBatchApprove,
}

func runBatchApprove(cmd *cobra.Command, args []string) error {
	body := map[string]any{
		"safe_only": batchSafe,
		"max_level": batchMaxRisk,
		"category":  batchCategory,
		"feedback":  batchFeedback,
	}
	var resp struct {
		Approved int                 `json:"approved"`
		Requests []*approval.Request `json:"requests"`
	}
	if err := apiSend("POST", "/v1/queue/batch-approve", body, &resp); err != nil {
		return err
	}

	if resp.Approved == 0 {
		fmt.Println("Nothing matched.")
		return nil
	}
	fmt.Printf("Approved %d request(s):\n", resp.Approved)
	for _, r := range resp.Requests {
		fmt.Printf("  %s  %s/%s\n", r.ID, r.Action.Category, r.Action.Type)
	}
	return nil
}
