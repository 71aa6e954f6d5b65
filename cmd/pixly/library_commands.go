package main

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"pixly/internal/api"
	"pixly/internal/classifier"
)

var countPrinter = message.NewPrinter(language.English)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search screenshot text and descriptions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withLibrary(ctx, func(svc *api.LibraryService) error {
				resp, err := svc.Search(cmd.Context(), query, limit)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Items) == 0 {
					fmt.Fprintf(out, "No screenshots match %q\n", resp.Query)
					return nil
				}
				fmt.Fprintln(out, renderScreenshotTable(resp.Items))
				fmt.Fprintln(out, countPrinter.Sprintf("%d result(s)", len(resp.Items)))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", api.DefaultLimit, "Maximum number of results")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newRecentCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recently organized screenshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(ctx, func(svc *api.LibraryService) error {
				resp, err := svc.Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Items) == 0 {
					fmt.Fprintln(out, "No screenshots organized yet")
					return nil
				}
				fmt.Fprintln(out, renderScreenshotTable(resp.Items))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", api.DefaultLimit, "Maximum number of results")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show library totals by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(ctx, func(svc *api.LibraryService) error {
				stats, err := svc.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, stats)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, countPrinter.Sprintf("Screenshots: %d", stats.Total))
				fmt.Fprintf(out, "Total size:  %s\n", humanize.IBytes(uint64(max(stats.TotalSize, 0))))
				fmt.Fprintln(out, countPrinter.Sprintf("Duplicates:  %d", stats.Duplicates))
				fmt.Fprintln(out, renderCategoryTable(stats))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func withLibrary(ctx *commandContext, fn func(*api.LibraryService) error) error {
	st, err := ctx.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(api.NewLibraryService(st))
}

func renderScreenshotTable(items []api.Screenshot) string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		name := item.Name
		if item.IsDuplicate {
			name += " (dup)"
		}
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			name,
			item.Category,
			item.FilePath,
		})
	}
	return renderTable([]column{
		{header: "ID", align: alignRight},
		{header: "Name", maxWidth: 60},
		{header: "Category"},
		{header: "Path", maxWidth: 80},
	}, rows, nil)
}

// renderCategoryTable lists the fixed categories in display order, then any
// legacy category names found in the database.
func renderCategoryTable(stats api.StatsResponse) string {
	order := make([]string, 0, len(stats.ByCategory))
	seen := make(map[string]bool)
	for _, c := range classifier.Categories() {
		order = append(order, string(c))
		seen[string(c)] = true
	}
	for _, name := range slices.Sorted(maps.Keys(stats.ByCategory)) {
		if !seen[name] {
			order = append(order, name)
		}
	}

	rows := make([][]string, 0, len(order))
	for _, name := range order {
		rows = append(rows, []string{name, countPrinter.Sprintf("%d", stats.ByCategory[name])})
	}
	return renderTable([]column{
		{header: "Category"},
		{header: "Count", align: alignRight},
	}, rows, []string{"Total", countPrinter.Sprintf("%d", stats.Total)})
}
