package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avrelio/warden/internal/approval"
)

var rejectReason string

func init() {
	rootCmd.AddCommand(rejectCmd)
	rejectCmd.Flags().StringVar(&rejectReason, "reason", "", "Why the action is rejected (required)")
	rejectCmd.MarkFlagRequired("reason")
}

var rejectCmd = &cobra.Command{
	Use:   "reject <request-id>",
	Short: "Reject a pending request without executing it",
	Args:  cobra.ExactArgs(1),
	RunE:  runReject,
}

func runReject(cmd *cobra.Command, args []string) error {
	var resp struct {
		Request *approval.Request `json:"request"`
		Changed bool              `json:"changed"`
	}
	body := map[string]string{"reason": rejectReason}
	if err := apiSend("POST", "/v1/queue/"+args[0]+"/reject", body, &resp); err != nil {
		return err
	}

	if !resp.Changed {
		fmt.Printf("Request %s already %s\n", args[0], resp.Request.Status)
		return nil
	}
	fmt.Printf("Rejected %s: %s\n", args[0], rejectReason)
	return nil
}
