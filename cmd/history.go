package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tanq16/bingo/internal/history"
	"github.com/tanq16/bingo/internal/mcpserver"
	"github.com/tanq16/bingo/internal/output"
)

type historyReader interface {
	History(limit int, platform string) ([]history.Record, error)
	Recent(hours int) ([]history.Record, error)
}

// selectHistory returns the last hours of records when hours is set, the
// newest limit records otherwise. Both honour the platform filter.
func selectHistory(svc historyReader, limit int, platform string, hours int) ([]history.Record, error) {
	if hours <= 0 {
		return svc.History(limit, platform)
	}
	recs, err := svc.Recent(hours)
	if err != nil {
		return nil, err
	}
	var out []history.Record
	for _, rec := range recs {
		if platform != "" && !strings.EqualFold(rec.Platform, platform) {
			continue
		}
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func newHistoryCmd() *cobra.Command {
	var limit, hours int
	var platform string
	cmd := &cobra.Command{
		Use:   "history [--limit N] [--platform NAME] [--hours N]",
		Short: "Show recent downloads",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if limit < 1 || limit > mcpserver.MaxHistoryLimit {
				exitWith(fmt.Sprintf("limit must be between 1 and %d", mcpserver.MaxHistoryLimit))
			}
			a := mustApp()
			defer a.Close()
			recs, err := selectHistory(a.svc, limit, platform, hours)
			if err != nil {
				exitWith("Error reading history: " + err.Error())
			}
			if len(recs) == 0 {
				output.PrintInfo("No downloads recorded yet")
				return
			}
			fmt.Fprint(output.Out, output.HistoryTable(recs))
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", mcpserver.DefaultHistoryLimit, "Number of records to show")
	cmd.Flags().StringVarP(&platform, "platform", "p", "", "Only show this platform")
	cmd.Flags().IntVar(&hours, "hours", 0, "Only show downloads from the last N hours")
	return cmd
}

func newStatsCmd() *cobra.Command {
	var platform string
	cmd := &cobra.Command{
		Use:   "stats [--platform NAME]",
		Short: "Show download statistics",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			a := mustApp()
			defer a.Close()
			stats, err := a.svc.Stats(platform)
			if err != nil {
				exitWith("Error reading history: " + err.Error())
			}
			var breakdown map[string]int
			if platform == "" {
				if breakdown, err = a.svc.Breakdown(); err != nil {
					exitWith("Error reading history: " + err.Error())
				}
			}
			fmt.Fprint(output.Out, output.StatsView(stats, breakdown))
		},
	}
	cmd.Flags().StringVarP(&platform, "platform", "p", "", "Only count this platform")
	return cmd
}

func newPruneCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "prune [--days N]",
		Short: "Remove history records older than N days",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if days < 1 {
				exitWith("days must be at least 1")
			}
			a := mustApp()
			defer a.Close()
			removed, err := a.svc.Prune(days)
			if err != nil {
				exitWith("Error pruning history: " + err.Error())
			}
			output.PrintSuccess(fmt.Sprintf("%s Removed %d records older than %d days", output.StyleSymbols["pass"], removed, days))
		},
	}
	cmd.Flags().IntVarP(&days, "days", "d", mcpserver.DefaultPruneDays, "Maximum record age in days")
	return cmd
}
