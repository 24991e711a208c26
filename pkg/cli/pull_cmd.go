package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"omnirelay/internal/domain"
	"omnirelay/internal/ledger"
	"omnirelay/internal/omni"
	"omnirelay/internal/relay"
	"omnirelay/internal/report"
	"omnirelay/internal/workflow"
)

// pullResult is the JSON output of a successful pull.
type pullResult struct {
	RunID     string                 `json:"run_id,omitempty"`
	RequestID domain.RequestID       `json:"request_id"`
	Artifact  string                 `json:"artifact"`
	SizeBytes int64                  `json:"size_bytes"`
	Uploads   []domain.UploadOutcome `json:"uploads,omitempty"`
}

func newPullCmd() *cobra.Command {
	var (
		dir      string
		timeout  time.Duration
		interval time.Duration
		noUpload bool
		defsFile string
	)

	cmd := &cobra.Command{
		Use:   "pull [report]",
		Short: "Pull one report and relay the artifact",
		Long:  "Submits a report generation request, polls until the artifact is ready, downloads it and uploads it to every configured destination.",
		Example: `  # Pull the inventory snapshot with the configured destinations
  omnirelay pull inventory

  # Pull the returns report, keep it local
  omnirelay pull returns --no-upload --dir ./out`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			// Visit walks only the flags set on the command line, so
			// environment values survive unless explicitly overridden.
			cmd.Flags().Visit(func(f *pflag.Flag) {
				switch f.Name {
				case "dir":
					cfg.DownloadDir = dir
				case "timeout":
					cfg.MaxWait = timeout
				case "interval":
					cfg.PollInterval = interval
				case "defs":
					cfg.ReportsFile = defsFile
				}
			})
			logger := newLogger(cfg)

			name := "inventory"
			if len(args) == 1 {
				name = args[0]
			}
			catalog, err := report.Load(cfg.ReportsFile)
			if err != nil {
				return err
			}
			def, ok := catalog.Get(name)
			if !ok {
				return fmt.Errorf("unknown report %q: known reports are %s",
					name, strings.Join(catalog.Names(), ", "))
			}

			rl := relay.New(logger)
			if !noUpload {
				rl, err = relay.FromConfig(ctx, cfg, logger)
				if err != nil {
					return err
				}
			}

			// A ledger that cannot open downgrades the run to an unrecorded
			// one; the pull itself outranks its bookkeeping.
			led, err := ledger.Open(cfg.LedgerPath)
			if err != nil {
				logger.Warn("ledger unavailable, run will not be recorded",
					"path", cfg.LedgerPath, "error", err)
				led = nil
			} else {
				defer led.Close() //nolint:errcheck
			}

			client := omni.NewClient(cfg, logger)
			runner := workflow.New(cfg, client, rl, led, logger)

			res, err := runner.Run(ctx, def)
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, pullResult{
					RunID:     res.RunID,
					RequestID: res.RequestID,
					Artifact:  res.Artifact.LocalPath,
					SizeBytes: res.Artifact.SizeBytes,
					Uploads:   res.Uploads,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Saved %s (%d bytes)\n", res.Artifact.LocalPath, res.Artifact.SizeBytes)
			for _, up := range res.Uploads {
				if up.Error != "" {
					fmt.Fprintf(out, "  %s: FAILED: %s\n", up.Target, up.Error)
					continue
				}
				fmt.Fprintf(out, "  %s: %s\n", up.Target, up.Ref)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Artifact download directory (overrides OMNI_DOWNLOAD_DIR)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Poll budget for report generation (overrides OMNI_MAX_WAIT)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Delay between status checks (overrides OMNI_POLL_INTERVAL)")
	cmd.Flags().BoolVar(&noUpload, "no-upload", false, "Keep the artifact local; skip all uploads")
	cmd.Flags().StringVar(&defsFile, "defs", "", "Report definitions YAML file (overrides OMNI_REPORTS_FILE)")

	return cmd
}
