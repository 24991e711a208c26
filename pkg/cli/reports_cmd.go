package cli

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"omnirelay/internal/report"
)

// reportView mirrors the admin API's report listing shape.
type reportView struct {
	Name       string `json:"name"`
	ReportID   int    `json:"report_id"`
	FilePrefix string `json:"file_prefix"`
	Timezone   string `json:"timezone"`
	Schedule   string `json:"schedule,omitempty"`
	Window     string `json:"window,omitempty"`
}

func newReportsCmd() *cobra.Command {
	var defsFile string

	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List the effective report catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("defs") {
				cfg.ReportsFile = defsFile
			}
			catalog, err := report.Load(cfg.ReportsFile)
			if err != nil {
				return err
			}

			defs := catalog.List()
			views := make([]reportView, 0, len(defs))
			for _, def := range defs {
				views = append(views, reportView{
					Name:       def.Name,
					ReportID:   def.ReportID,
					FilePrefix: def.FilePrefix,
					Timezone:   def.Timezone,
					Schedule:   def.Schedule,
					Window:     string(def.Window),
				})
			}

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, views)
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{
					v.Name,
					strconv.Itoa(v.ReportID),
					v.Schedule,
					v.Window,
					v.FilePrefix,
				})
			}
			PrintTable(cmd.OutOrStdout(), []string{"name", "report id", "schedule", "window", "prefix"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&defsFile, "defs", "", "Report definitions YAML file (overrides OMNI_REPORTS_FILE)")

	return cmd
}
