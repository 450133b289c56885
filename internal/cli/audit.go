package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avrelio/warden/internal/audit"
	"github.com/avrelio/warden/internal/config"
)

var (
	auditLogPath string
	tailLines    int
	tailType     string
	traceJSON    bool
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditTailCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditTraceCmd)

	auditCmd.PersistentFlags().StringVar(&auditLogPath, "log", "", "Audit log path (default: the daemon's data dir)")
	auditTailCmd.Flags().IntVarP(&tailLines, "lines", "n", 10, "Number of recent entries to show")
	auditTailCmd.Flags().StringVar(&tailType, "type", "", "Only entries of this type, e.g. executed")
	auditTraceCmd.Flags().BoolVar(&traceJSON, "json", false, "Output as JSON")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit chain operations",
	Long: "Commands for inspecting and verifying the hash-chained audit log.\n" +
		"These read the log file directly and work without the daemon.",
}

var auditTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show recent audit entries",
	RunE:  runAuditTail,
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify hash chain integrity",
	Long: "Walks the JSONL audit log and validates that every entry's prev_hash\n" +
		"matches the SHA-256 of the previous line. Exits 0 if valid, 1 if tampered.",
	RunE: runAuditVerify,
}

var auditTraceCmd = &cobra.Command{
	Use:   "trace <action-id>",
	Short: "Show one action's full lifecycle",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditTrace,
}

func resolveAuditPath() string {
	if auditLogPath != "" {
		return auditLogPath
	}
	cfg, err := config.FromEnv()
	if err != nil {
		cfg = config.Defaults()
	}
	return cfg.AuditLogPath()
}

func runAuditTail(cmd *cobra.Command, args []string) error {
	entries, err := audit.Tail(resolveAuditPath(), tailLines, audit.EntryType(tailType))
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No entries.")
		return nil
	}
	for _, e := range entries {
		printJSON(e)
	}
	return nil
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	result := audit.Verify(resolveAuditPath())
	if result.Valid {
		fmt.Printf("OK: %d entries verified\n", result.Entries)
		return nil
	}
	fmt.Fprintf(os.Stderr, "FAILED at line %d: %s\n", result.ErrorLine, result.Error)
	os.Exit(1)
	return nil
}

func runAuditTrace(cmd *cobra.Command, args []string) error {
	result, err := audit.Trace(resolveAuditPath(), audit.TraceFilter{ActionID: args[0]})
	if err != nil {
		return err
	}
	if traceJSON {
		out, err := audit.FormatJSON(result)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}
	fmt.Print(audit.FormatTimeline(result))
	return nil
}
