package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avrelio/warden/internal/approval"
)

var approveFeedback string

func init() {
	rootCmd.AddCommand(approveCmd)
	approveCmd.Flags().StringVar(&approveFeedback, "feedback", "", "Optional note recorded with the approval")
}

var approveCmd = &cobra.Command{
	Use:   "approve <request-id>",
	Short: "Approve a pending request and execute its action",
	Long: "Approves a pending approval request. The approved action runs through\n" +
		"the executor immediately; the approval and the execution both land in\n" +
		"the audit chain. Approving an already resolved request is a no-op.",
	Args: cobra.ExactArgs(1),
	RunE: runApprove,
}

func runApprove(cmd *cobra.Command, args []string) error {
	var resp struct {
		Request    *approval.Request `json:"request"`
		Changed    bool              `json:"changed"`
		ExecStatus string            `json:"exec_status"`
		ExecError  string            `json:"exec_error"`
	}
	body := map[string]string{"feedback": approveFeedback}
	if err := apiSend("POST", "/v1/queue/"+args[0]+"/approve", body, &resp); err != nil {
		return err
	}

	if !resp.Changed {
		fmt.Printf("Request %s already %s, nothing executed\n", args[0], resp.Request.Status)
		return nil
	}
	fmt.Printf("Approved %s: action %s %s\n", args[0], resp.Request.Action.ID, resp.ExecStatus)
	if resp.ExecError != "" {
		return fmt.Errorf("execution failed: %s", resp.ExecError)
	}
	return nil
}
