package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avrelio/warden/internal/model"
)

var (
	submitCategory   string
	submitType       string
	submitValue      float64
	submitReversible bool
	submitUrgency    string
	submitVisible    bool
	submitSource     string
)

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().StringVar(&submitCategory, "category", "", "Action category: trading, content, development, other")
	submitCmd.Flags().StringVar(&submitType, "type", "", "Action type, e.g. dca_buy")
	submitCmd.Flags().Float64Var(&submitValue, "value", 0, "Financial value in USD")
	submitCmd.Flags().BoolVar(&submitReversible, "reversible", false, "Whether the action can be undone")
	submitCmd.Flags().StringVar(&submitUrgency, "urgency", "", "Urgency: low, normal, high, critical")
	submitCmd.Flags().BoolVar(&submitVisible, "visible", false, "Whether the result is externally visible")
	submitCmd.Flags().StringVar(&submitSource, "source", "cli", "Producing engine name")
	submitCmd.MarkFlagRequired("category")
	submitCmd.MarkFlagRequired("type")
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit an action through the decision pipeline",
	Long: "Sends one action to the daemon for classification, boundary checking\n" +
		"and routing. Useful for dry runs and for producers without an HTTP client.",
	RunE: runSubmit,
}

func runSubmit(cmd *cobra.Command, args []string) error {
	body := map[string]any{
		"category":           submitCategory,
		"type":               submitType,
		"reversible":         submitReversible,
		"externally_visible": submitVisible,
		"source_engine":      submitSource,
	}
	if cmd.Flags().Changed("value") {
		body["financial_value"] = submitValue
	}
	if submitUrgency != "" {
		body["urgency"] = submitUrgency
	}

	var resp struct {
		ActionID   string          `json:"action_id"`
		Decision   *model.Decision `json:"decision"`
		RequestID  string          `json:"request_id"`
		ExecStatus string          `json:"exec_status"`
		ExecError  string          `json:"exec_error"`
	}
	if err := apiSend("POST", "/v1/actions", body, &resp); err != nil {
		return err
	}

	d := resp.Decision
	fmt.Printf("Action %s: %s (risk %d/%s)\n", resp.ActionID, d.Outcome, d.Assessment.Score, d.Assessment.Level)
	fmt.Printf("  %s\n", d.Reason)
	for _, v := range d.Violations {
		fmt.Printf("  violation: %s\n", v.Detail)
	}
	if resp.RequestID != "" {
		fmt.Printf("  approval request: %s\n", resp.RequestID)
	}
	if resp.ExecStatus != "" {
		fmt.Printf("  execution: %s\n", resp.ExecStatus)
	}
	if resp.ExecError != "" {
		return fmt.Errorf("execution failed: %s", resp.ExecError)
	}
	return nil
}
