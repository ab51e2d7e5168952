package mcpserver

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tanq16/bingo/internal/history"
	"github.com/tanq16/bingo/internal/ytdlp"
)

func formatFailure(res *ytdlp.Result) string {
	if res.ErrorKind == ytdlp.KindValidation {
		return "Validation error: " + res.Error
	}
	return fmt.Sprintf("✗ Download failed (%s): %s", res.ErrorKind, res.Error)
}

func formatDownload(res *ytdlp.Result) string {
	return fmt.Sprintf("✓ Download completed!\n\nFile: %s\nSize: %s\nQuality: %s\nPlatform: %s",
		res.FilePath, res.FileSize, res.Quality, res.Platform)
}

func formatAudio(res *ytdlp.Result) string {
	return fmt.Sprintf("✓ Audio extraction completed!\n\nFile: %s\nFormat: %s\nSize: %s",
		res.FilePath, res.Format, res.FileSize)
}

func formatSubtitles(res *ytdlp.Result) string {
	return fmt.Sprintf("✓ Download with subtitles completed!\n\nFile: %s\nSubtitles: %s\nQuality: %s",
		res.FilePath, res.Subtitles, res.Quality)
}

func formatFormats(res *ytdlp.Result) string {
	return "Available formats:\n\n" + res.Formats
}

func formatHistory(recs []history.Record) string {
	if len(recs) == 0 {
		return "No download history found."
	}
	var b strings.Builder
	b.WriteString("Download History\n\n")
	for i, r := range recs {
		title := r.Title
		if title == "" {
			title = r.URL
		}
		status := "✓"
		if !r.Success {
			status = "✗"
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, title)
		fmt.Fprintf(&b, "   URL: %s\n", r.URL)
		fmt.Fprintf(&b, "   Platform: %s\n", r.Platform)
		fmt.Fprintf(&b, "   Status: %s\n", status)
		if r.FileSize > 0 {
			fmt.Fprintf(&b, "   Size: %s\n", humanize.IBytes(uint64(r.FileSize)))
		}
		fmt.Fprintf(&b, "   Date: %s\n\n", r.Time().Format(time.DateTime))
	}
	return b.String()
}

func formatStats(stats history.Stats, breakdown map[string]int) string {
	var b strings.Builder
	b.WriteString("Download Statistics")
	if stats.Platform != "" {
		fmt.Fprintf(&b, " (%s)", stats.Platform)
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Total Downloads: %d\n", stats.Total)
	fmt.Fprintf(&b, "Successful: %d ✓\n", stats.Successful)
	fmt.Fprintf(&b, "Failed: %d ✗\n", stats.Failed)
	fmt.Fprintf(&b, "Success Rate: %.1f%%\n", stats.SuccessRate())
	if stats.TotalSize > 0 {
		fmt.Fprintf(&b, "Total Size: %s\n", humanize.IBytes(uint64(stats.TotalSize)))
	}
	if len(breakdown) > 0 {
		b.WriteString("\nBy Platform:\n")
		type entry struct {
			platform string
			count    int
		}
		entries := make([]entry, 0, len(breakdown))
		for p, n := range breakdown {
			entries = append(entries, entry{p, n})
		}
		slices.SortFunc(entries, func(x, y entry) int {
			if c := cmp.Compare(y.count, x.count); c != 0 {
				return c
			}
			return cmp.Compare(x.platform, y.platform)
		})
		for _, e := range entries {
			fmt.Fprintf(&b, "  %s: %d\n", e.platform, e.count)
		}
	}
	return b.String()
}
