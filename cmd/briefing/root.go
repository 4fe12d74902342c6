package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/africagold/briefing/internal/config"
	"github.com/africagold/briefing/internal/logger"
	"github.com/africagold/briefing/internal/model"
	"github.com/africagold/briefing/internal/orchestrator"
)

type rootFlags struct {
	dryRun     bool
	publish    bool
	postType   string
	logTail    int
	verbose    bool
	configPath string
}

func (f *rootFlags) mode() model.Mode {
	switch {
	case f.dryRun:
		return model.ModeDryRun
	case f.publish:
		return model.ModePublish
	default:
		return model.ModeDraft
	}
}

func (f *rootFlags) newLogger() (*logger.Logger, error) {
	level := "info"
	if f.verbose {
		level = "debug"
	}
	return logger.New(logger.Options{Level: level, HumanReadable: true})
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "briefing",
		Short:         "briefing runs the daily Africa gold newsletter pipeline",
		Long: `briefing collects gold market data, African producer intelligence, and
mining-contract transparency datasets, synthesizes the day's free and
premium editions, and delivers them to the newsletter platform.

Without flags it stages today's edition as a draft for manual review.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("log") {
				return runLogView(flags, flags.logTail)
			}
			return runPipeline(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Build content and write local previews, no external side effects")
	cmd.Flags().BoolVar(&flags.publish, "publish", false, "Publish live immediately instead of staging a draft")
	cmd.Flags().StringVar(&flags.postType, "post-type", "", "Override the calendar edition (e.g. trader_intel)")
	cmd.Flags().IntVar(&flags.logTail, "log", 10, "Print the last run-log entries and exit (--log=N to change the count)")
	// Bare --log works; the count is optional.
	cmd.Flags().Lookup("log").NoOptDefVal = "10"
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to briefing.yaml")
	cmd.MarkFlagsMutuallyExclusive("dry-run", "publish")

	cmd.AddCommand(newLogCmd(flags))
	cmd.AddCommand(newReportCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func runPipeline(ctx context.Context, flags *rootFlags) error {
	log, err := flags.newLogger()
	if err != nil {
		return err
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}

	// An operator interrupt cancels stages but still lets reporting run.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return orchestrator.New(cfg, log).Run(ctx, flags.mode(), flags.postType)
}
