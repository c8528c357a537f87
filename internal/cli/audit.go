package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcelocantos/pipesh/internal/audit"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit journal",
	Long: `Every line pipesh runs is appended to a hash-chained JSONL journal.
These commands check and display it.`,
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the journal's hash chain",
	Args:  cobra.NoArgs,
	RunE:  runAuditVerify,
}

var auditShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the last entries as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAuditEntries(cmd, true)
	},
}

var auditTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print the last entries one per line",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAuditEntries(cmd, false)
	},
}

func init() {
	auditCmd.AddCommand(auditVerifyCmd, auditShowCmd, auditTailCmd)
	for _, c := range []*cobra.Command{auditShowCmd, auditTailCmd} {
		c.Flags().IntP("lines", "n", 20, "Number of entries to print")
	}
}

func auditPath(cmd *cobra.Command) (string, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	return cfg.Audit.Path, nil
}

func runAuditVerify(cmd *cobra.Command, _ []string) error {
	path, err := auditPath(cmd)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if err := audit.Verify(path); err != nil {
		fmt.Fprintf(w, "audit verification FAILED: %v\n", err)
		return &statusError{code: 1}
	}
	fmt.Fprintln(w, "audit log integrity verified")
	return nil
}

func runAuditEntries(cmd *cobra.Command, asJSON bool) error {
	path, err := auditPath(cmd)
	if err != nil {
		return err
	}
	n, err := cmd.Flags().GetInt("lines")
	if err != nil {
		return err
	}
	entries, err := audit.Tail(path, n)
	if err != nil {
		return fmt.Errorf("audit: %w", err)
	}

	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(w, "no audit entries")
		return nil
	}
	for _, e := range entries {
		if !asJSON {
			fmt.Fprintln(w, e.Summary())
			continue
		}
		data, _ := json.MarshalIndent(e, "", "  ")
		fmt.Fprintf(w, "%s\n", data)
	}
	return nil
}
