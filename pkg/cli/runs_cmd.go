package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"omnirelay/internal/domain"
	"omnirelay/internal/ledger"
)

func newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent runs from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			// Unlike pull, this command exists only to read the ledger, so a
			// ledger that cannot open is fatal here.
			led, err := ledger.Open(cfg.LedgerPath)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer led.Close() //nolint:errcheck

			records, err := led.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if records == nil {
				records = []domain.RunRecord{}
			}

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, records)
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				requestID := ""
				if rec.RequestID != nil {
					requestID = strconv.FormatInt(int64(*rec.RequestID), 10)
				}
				rows = append(rows, []string{
					rec.ID,
					rec.Report,
					string(rec.Status),
					requestID,
					rec.StartedAt.Format(time.RFC3339),
					rec.ArtifactPath,
				})
			}
			PrintTable(cmd.OutOrStdout(), []string{"id", "report", "status", "request", "started", "artifact"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")

	return cmd
}
