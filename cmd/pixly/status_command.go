package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"pixly/internal/api"
	"pixly/internal/config"
	"pixly/internal/preflight"
)

type statusReport struct {
	ConfigPath string             `json:"configPath"`
	Checks     []preflight.Result `json:"checks"`
	Library    *api.StatsResponse `json:"library,omitempty"`
	Daemon     *api.DaemonStatus  `json:"daemon,omitempty"`
	DaemonErr  string             `json:"daemonError,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var checkAI bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show dependency checks, library totals and daemon state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := collectStatus(cmd.Context(), ctx, cfg, checkAI)
			if jsonOut {
				return writeJSON(cmd, report)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintln(out, strings.Join(renderStatusReport(report, colorize), "\n"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&checkAI, "check-ai", false, "Send a test request to the AI provider")
	return cmd
}

func collectStatus(cmdCtx context.Context, ctx *commandContext, cfg *config.Config, checkAI bool) statusReport {
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	report := statusReport{ConfigPath: ctx.configPath}
	report.Checks = preflight.RunAll(cmdCtx, cfg)
	if checkAI {
		report.Checks = append(report.Checks, preflight.CheckAIConnectivity(cmdCtx, cfg))
	}

	if st, err := ctx.openStore(); err == nil {
		stats, statsErr := st.Stats(cmdCtx)
		st.Close()
		if statsErr == nil {
			converted := api.FromStats(stats)
			report.Library = &converted
		}
	}

	status, err := fetchDaemonStatus(cmdCtx, cfg)
	if err != nil {
		report.DaemonErr = err.Error()
	} else {
		report.Daemon = &status
	}
	return report
}

func renderStatusReport(report statusReport, colorize bool) []string {
	var lines []string
	lines = append(lines, renderSectionHeader("System", colorize)...)
	lines = append(lines, renderStatusLine("Config", statusInfo, report.ConfigPath, colorize))
	for _, r := range report.Checks {
		kind := statusOK
		switch {
		case !r.Passed && r.Fatal:
			kind = statusError
		case !r.Passed:
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Library", colorize)...)
	if report.Library == nil {
		lines = append(lines, renderStatusLine("Database", statusError, "unavailable", colorize))
	} else {
		lines = append(lines,
			renderStatusLine("Screenshots", statusInfo, countPrinter.Sprintf("%d (%s)", report.Library.Total, humanize.IBytes(uint64(max(report.Library.TotalSize, 0)))), colorize),
			renderStatusLine("Duplicates", statusInfo, countPrinter.Sprintf("%d", report.Library.Duplicates), colorize),
		)
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Daemon", colorize)...)
	if report.Daemon == nil {
		lines = append(lines, renderStatusLine("Daemon", statusWarn, "not running", colorize))
		return lines
	}
	d := report.Daemon
	lines = append(lines,
		renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d)", d.PID), colorize),
		renderStatusLine("Watching", statusInfo, strings.Join(d.Watched, ", "), colorize),
		renderStatusLine("Queue", statusInfo, fmt.Sprintf("%d/%d queued, %d dropped", d.Queue.Length, d.Queue.Capacity, d.Queue.Dropped), colorize),
		renderStatusLine("Pipeline", statusInfo, fmt.Sprintf("%d processed, %d failed", d.Pipeline.Processed, d.Pipeline.Failed), colorize),
	)
	if d.Pipeline.LastError != "" {
		lines = append(lines, renderStatusLine("Last error", statusWarn, d.Pipeline.LastError, colorize))
	}
	for _, h := range d.Health {
		kind := statusOK
		if !h.Ready {
			kind = statusError
		}
		lines = append(lines, renderStatusLine("Component "+h.Name, kind, h.Detail, colorize))
	}
	return lines
}
