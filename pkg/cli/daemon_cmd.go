package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"omnirelay/internal/admin"
	"omnirelay/internal/ledger"
	"omnirelay/internal/omni"
	"omnirelay/internal/relay"
	"omnirelay/internal/report"
	"omnirelay/internal/scheduler"
	"omnirelay/internal/workflow"
)

func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run scheduled pulls and the admin API",
		Long: "Starts the cron scheduler for every report that carries a schedule and " +
			"serves the admin API until SIGTERM or SIGINT.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			slog.SetDefault(logger)

			// Scheduled pulls cannot prompt for credentials, so a missing
			// session fails at startup instead of at 07:00.
			if err := cfg.RequireSession(); err != nil {
				return err
			}

			catalog, err := report.Load(cfg.ReportsFile)
			if err != nil {
				return err
			}

			// The daemon exists to record what ran; unlike pull it refuses
			// to start without the ledger.
			led, err := ledger.Open(cfg.LedgerPath)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer led.Close() //nolint:errcheck

			rl, err := relay.FromConfig(ctx, cfg, logger)
			if err != nil {
				return err
			}

			client := omni.NewClient(cfg, logger)
			runner := workflow.New(cfg, client, rl, led, logger)
			sched := scheduler.New(runner, catalog, logger)
			srv := admin.New(cfg, led, catalog, logger)

			logger.Info("daemon starting",
				"reports", catalog.Names(),
				"relay_targets", rl.Targets(),
				"admin_addr", cfg.AdminListenAddr)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.Run(gctx)
			})
			g.Go(func() error {
				if err := sched.Start(); err != nil {
					return err
				}
				<-gctx.Done()
				sched.Stop()
				return nil
			})
			return g.Wait()
		},
	}
}
