package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	var s struct {
		AutonomyLevel int    `json:"autonomy_level"`
		LevelLabel    string `json:"level_label"`
		Pending       int    `json:"pending"`
		AuditSeq      int    `json:"audit_seq"`
	}
	if err := apiGet("/v1/status", &s); err != nil {
		return err
	}

	fmt.Printf("Autonomy level: %d (%s)\n", s.AutonomyLevel, s.LevelLabel)
	fmt.Printf("Pending approvals: %d\n", s.Pending)
	fmt.Printf("Audit entries: %d\n", s.AuditSeq)
	return nil
}
