// Package cli implements the omnirelay command line interface.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"omnirelay/internal/config"
	"omnirelay/internal/domain"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			errObj := map[string]interface{}{
				"error": err.Error(),
			}
			if code := errorCode(err); code != "" {
				errObj["code"] = code
			}
			_ = PrintJSON(os.Stdout, errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// errorCode maps the workflow error classes to stable machine-readable codes
// for the JSON error envelope.
func errorCode(err error) string {
	var (
		authErr     *domain.AuthError
		resErr      *domain.ResolutionError
		pollErr     *domain.PollTimeoutError
		failedErr   *domain.ReportFailedError
		downloadErr *domain.DownloadError
	)
	switch {
	case errors.As(err, &authErr):
		return "AUTH_ERROR"
	case errors.As(err, &resErr):
		return "RESOLUTION_ERROR"
	case errors.As(err, &pollErr):
		return "POLL_TIMEOUT"
	case errors.As(err, &failedErr):
		return "REPORT_FAILED"
	case errors.As(err, &downloadErr):
		return "DOWNLOAD_ERROR"
	}
	return ""
}

func newRootCmd() *cobra.Command {
	var (
		output  string
		profile string
	)

	rootCmd := &cobra.Command{
		Use:           "omnirelay",
		Short:         "Omni report pull-and-relay tool",
		Long:          "Pulls asynchronous business reports from the Omni reporting service and relays the artifacts to Google Drive and optional cloud mirrors.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Apply precedence: flag > env > profile > default
			if !cmd.Flags().Changed("output") {
				if v := os.Getenv("OMNI_OUTPUT"); v != "" {
					output = v
				} else if p := activeProfile(cmd); p.Output != "" {
					output = p.Output
				}
			}
			return validateOutputFormat(output)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "Config profile to use")

	rootCmd.AddCommand(newPullCmd())
	rootCmd.AddCommand(newReportsCmd())
	rootCmd.AddCommand(newRunsCmd())
	rootCmd.AddCommand(newDaemonCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// activeProfile resolves the profile selected by --profile (or the config
// file's current-profile). A missing config file yields an empty profile.
func activeProfile(cmd *cobra.Command) Profile {
	cfg, err := LoadUserConfig()
	if err != nil {
		return Profile{}
	}
	override, _ := cmd.Root().PersistentFlags().GetString("profile")
	return cfg.ActiveProfile(override)
}

// resolveConfig builds the effective runtime configuration: a .env file in
// the working directory first, then environment variables, then the active
// profile for anything still unset.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}

	p := activeProfile(cmd)
	if cfg.Session == "" && p.Session != "" {
		cfg.Session = p.Session
	}
	if cfg.AuthToken == "" && p.AuthToken != "" {
		cfg.AuthToken = p.AuthToken
	}
	if cfg.DriveFolderID == "" && p.DriveFolderID != "" {
		cfg.DriveFolderID = p.DriveFolderID
	}
	// LoadFromEnv fills the default base URL, so the profile only wins when
	// the environment never set one.
	if os.Getenv("OMNI_BASE_URL") == "" && p.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(p.BaseURL, "/")
	}
	return cfg, nil
}

// newLogger builds the logger handed to the internal packages and drains any
// warnings collected while loading the configuration.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}
	return logger
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}
