package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/africagold/briefing/internal/config"
	"github.com/africagold/briefing/internal/notify"
	"github.com/africagold/briefing/internal/orchestrator"
	"github.com/africagold/briefing/internal/stages/analytics"
)

func newReportCmd(flags *rootFlags) *cobra.Command {
	email := false

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate the weekly analytics report now",
		Long: `Aggregates the run log and per-stage logs into the weekly performance
report, regardless of day, and prints the summary. The full report is
emailed to the operator every Sunday automatically; --email sends it now.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, flags, email)
		},
	}
	cmd.Flags().BoolVar(&email, "email", false, "Email the full report to the operator")
	return cmd
}

func runReport(cmd *cobra.Command, flags *rootFlags, email bool) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}

	report, err := analytics.BuildReport(orchestrator.AnalyticsLogs(cfg.Settings.LogDir), time.Now())
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), report.Text)

	if email {
		log, err := flags.newLogger()
		if err != nil {
			return err
		}
		notify.New(cfg.Notify, log).Send(cmd.Context(),
			notify.WeeklyReport(report.WeekEnd, report.Text, report.HTML))
	}
	return nil
}
