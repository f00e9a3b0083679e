package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/reefctl-io/reefctl/internal/engine"
	"github.com/reefctl-io/reefctl/internal/nas"
)

var (
	flagHost         string
	flagUser         string
	flagAPIKey       string
	flagComposeDir   string
	flagCatalogDir   string
	flagDryRun       bool
	flagPollInterval time.Duration
	flagInsecure     bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile deployed applications with local definitions",
	Long: `Loads definitions from the compose and catalog directories, compares them
with the applications deployed on the host, and creates or updates whatever
is missing or drifted, watching each job to completion.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReconcile(cmd, flagDryRun)
	},
}

func init() {
	addRunFlags(syncCmd)
	syncCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Show the plan without making changes")
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagHost, "host", "", "Hostname or IP of the NAS host")
	cmd.Flags().StringVar(&flagUser, "user", "admin", "Username to log in with")
	cmd.Flags().StringVar(&flagAPIKey, "api-key", "", "API key to log in with (skips the password prompt)")
	cmd.Flags().StringVar(&flagComposeDir, "compose-dir", "", "Directory of compose files to deploy")
	cmd.Flags().StringVar(&flagCatalogDir, "catalog-dir", "", "Directory of catalog-exported definitions to deploy")
	cmd.Flags().DurationVar(&flagPollInterval, "poll-interval", engine.DefaultPollInterval, "Delay between job status polls")
	cmd.Flags().BoolVar(&flagInsecure, "insecure", false, "Use ws:// instead of wss://")
}

func runReconcile(cmd *cobra.Command, dryRun bool) error {
	cfg, err := loadFileConfig(configPath)
	if err != nil {
		return err
	}
	if err := mergeConfig(cmd, cfg); err != nil {
		return err
	}

	if flagHost == "" {
		return fmt.Errorf("--host is required (flag or config file)")
	}
	if flagComposeDir == "" && flagCatalogDir == "" {
		return fmt.Errorf("at least one of --compose-dir or --catalog-dir is required")
	}

	ctx := cmd.Context()

	client, err := nas.Dial(ctx, nas.Endpoint(flagHost, flagInsecure))
	if err != nil {
		return err
	}
	defer client.Close()

	if flagAPIKey != "" {
		err = client.LoginWithKey(ctx, flagAPIKey)
	} else {
		var password string
		password, err = promptPassword(flagUser)
		if err != nil {
			return err
		}
		err = client.Login(ctx, flagUser, password)
	}
	if err != nil {
		return err
	}

	driver := &engine.Driver{
		API:          client,
		ComposeDir:   flagComposeDir,
		CatalogDir:   flagCatalogDir,
		DryRun:       dryRun,
		PollInterval: flagPollInterval,
		Callback:     renderEvent(dryRun),
	}

	summary, err := driver.Run(ctx)
	if err != nil {
		return err
	}

	renderSummary(summary)
	if !summary.OK() {
		return fmt.Errorf("%d application(s) failed to reconcile", summary.Failed)
	}
	return nil
}

// mergeConfig applies config-file values wherever the flag was not set on
// the command line.
func mergeConfig(cmd *cobra.Command, cfg fileConfig) error {
	flags := cmd.Flags()
	if !flags.Changed("host") && cfg.Host != "" {
		flagHost = cfg.Host
	}
	if !flags.Changed("user") && cfg.User != "" {
		flagUser = cfg.User
	}
	if !flags.Changed("api-key") && cfg.APIKey != "" {
		flagAPIKey = cfg.APIKey
	}
	if !flags.Changed("compose-dir") && cfg.ComposeDir != "" {
		flagComposeDir = cfg.ComposeDir
	}
	if !flags.Changed("catalog-dir") && cfg.CatalogDir != "" {
		flagCatalogDir = cfg.CatalogDir
	}
	if !flags.Changed("insecure") && cfg.Insecure {
		flagInsecure = true
	}
	if !flags.Changed("poll-interval") {
		d, err := cfg.pollInterval()
		if err != nil {
			return err
		}
		if d > 0 {
			flagPollInterval = d
		}
	}
	return nil
}

func promptPassword(user string) (string, error) {
	fmt.Printf("Password for %s: ", user)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}
