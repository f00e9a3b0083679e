package cli

import (
	"github.com/spf13/cobra"

	"github.com/reefctl-io/reefctl/internal/logging"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "reefctl",
	Short: "Reconcile NAS applications from local definitions",
	Long: `reefctl reconciles the applications deployed on a NAS host against a
local directory of desired definitions (compose files or catalog exports).

For each definition it decides whether the app is missing, drifted or in
sync, then drives the platform's job API to create or update it, watching
each job to completion.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logLevel)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ~/.config/reefctl/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(versionCmd)
}
