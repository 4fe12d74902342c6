package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/africagold/briefing/internal/config"
	"github.com/africagold/briefing/internal/orchestrator"
	"github.com/africagold/briefing/internal/runlog"
	"github.com/africagold/briefing/internal/tui/logbrowser"
)

func newLogCmd(flags *rootFlags) *cobra.Command {
	tail := 10

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Inspect recent pipeline runs",
		Long:  "Browse the run log interactively in a terminal, or print it as a table when output is piped.",
		RunE: func(*cobra.Command, []string) error {
			return runLogView(flags, tail)
		},
	}
	cmd.Flags().IntVarP(&tail, "tail", "n", 10, "Number of entries to show")
	return cmd
}

func runLogView(flags *rootFlags, tail int) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}

	store := runlog.NewStore(filepath.Join(cfg.Settings.LogDir, orchestrator.RunLogFile))
	entries, err := store.TailRuns(tail)
	if err != nil {
		return err
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		return logbrowser.Run(entries)
	}
	fmt.Print(logbrowser.Table(entries))
	return nil
}
