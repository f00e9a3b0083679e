package cli

import (
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what sync would do, without making changes",
	Long: `Classifies every local definition against the deployed applications and
prints the resulting action plan. No jobs are submitted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReconcile(cmd, true)
	},
}

func init() {
	addRunFlags(planCmd)
}
