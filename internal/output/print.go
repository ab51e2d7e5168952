package output

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/tanq16/bingo/internal/ytdlp"
)

func PrintSuccess(text string) { fmt.Fprintln(Out, successStyle.Render(text)) }

func PrintError(text string) { fmt.Fprintln(Out, errorStyle.Render(text)) }

func PrintWarning(text string) { fmt.Fprintln(Out, warningStyle.Render(text)) }

func PrintInfo(text string) { fmt.Fprintln(Out, infoStyle.Render(text)) }

func PrintHeader(text string) { fmt.Fprintln(Out, headerStyle.Render(text)) }

func FDebug(text string) string { return debugStyle.Render(text) }

// FormatBytes renders a byte count with IEC units, e.g. "1.5 MiB".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(n))
}

// PrintResult prints one download result the way the CLI commands show it.
func PrintResult(res *ytdlp.Result) {
	if !res.Success {
		PrintError(fmt.Sprintf("%s %s: %s", StyleSymbols["fail"], res.ErrorKind, res.Error))
		return
	}
	if res.Formats != "" {
		PrintHeader("Available formats")
		fmt.Fprint(Out, res.Formats)
		if !strings.HasSuffix(res.Formats, "\n") {
			fmt.Fprintln(Out)
		}
		return
	}
	PrintSuccess(StyleSymbols["pass"] + " Completed")
	field := func(name, value string) {
		if value != "" {
			fmt.Fprintf(Out, "  %s %s\n", FDebug(name+":"), detailStyle.Render(value))
		}
	}
	field("File", res.FilePath)
	field("Size", res.FileSize)
	field("Format", res.Format)
	field("Quality", res.Quality)
	field("Subtitles", res.Subtitles)
	field("Platform", res.Platform)
	if res.Attempts > 1 {
		field("Attempts", fmt.Sprint(res.Attempts))
	}
}
