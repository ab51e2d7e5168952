package output

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tanq16/bingo/internal/history"
)

var cellStyle = lipgloss.NewStyle().PaddingRight(2)

// HistoryTable renders records as aligned columns.
func HistoryTable(recs []history.Record) string {
	if len(recs) == 0 {
		return infoStyle.Render("No download history found.")
	}
	header := []string{"ID", "", "PLATFORM", "SIZE", "WHEN", "TITLE"}
	rows := [][]string{header}
	for _, r := range recs {
		status := StyleSymbols["pass"]
		if !r.Success {
			status = StyleSymbols["fail"]
		}
		title := r.Title
		if title == "" {
			title = r.URL
		}
		size := "-"
		if r.FileSize > 0 {
			size = FormatBytes(r.FileSize)
		}
		rows = append(rows, []string{
			fmt.Sprint(r.ID), status, r.Platform, size, humanize.Time(r.Time()), title,
		})
	}
	return renderColumns(rows, func(row, col int, cell string) string {
		switch {
		case row == 0:
			return headerStyle.Render(cell)
		case col == 1 && cell == StyleSymbols["pass"]:
			return successStyle.Render(cell)
		case col == 1:
			return errorStyle.Render(cell)
		case col == 4:
			return debugStyle.Render(cell)
		}
		return cell
	})
}

// StatsView renders aggregate statistics and an optional platform breakdown.
func StatsView(stats history.Stats, breakdown map[string]int) string {
	var b strings.Builder
	title := "Download Statistics"
	if stats.Platform != "" {
		title += " (" + stats.Platform + ")"
	}
	b.WriteString(headerStyle.Render(title) + "\n")
	line := func(name, value string) {
		fmt.Fprintf(&b, "  %s %s\n", debugStyle.Render(fmt.Sprintf("%-14s", name)), value)
	}
	line("Total", fmt.Sprint(stats.Total))
	line("Successful", successStyle.Render(fmt.Sprint(stats.Successful)))
	line("Failed", errorStyle.Render(fmt.Sprint(stats.Failed)))
	line("Success rate", fmt.Sprintf("%.1f%%", stats.SuccessRate()))
	line("Total size", FormatBytes(stats.TotalSize))
	if len(breakdown) > 0 {
		b.WriteString(headerStyle.Render("By platform") + "\n")
		platforms := make([]string, 0, len(breakdown))
		for p := range breakdown {
			platforms = append(platforms, p)
		}
		slices.SortFunc(platforms, func(x, y string) int {
			if c := cmp.Compare(breakdown[y], breakdown[x]); c != 0 {
				return c
			}
			return cmp.Compare(x, y)
		})
		for _, p := range platforms {
			line(p, fmt.Sprint(breakdown[p]))
		}
	}
	return b.String()
}

// renderColumns pads every column to its widest cell before styling.
func renderColumns(rows [][]string, style func(row, col int, cell string) string) string {
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	var b strings.Builder
	for r, row := range rows {
		cells := make([]string, len(row))
		for c, cell := range row {
			if c == len(row)-1 {
				cells[c] = style(r, c, cell)
				continue
			}
			cells[c] = cellStyle.Width(widths[c] + 2).Render(style(r, c, cell))
		}
		b.WriteString(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, cells...), " "))
		b.WriteByte('\n')
	}
	return b.String()
}
