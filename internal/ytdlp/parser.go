package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"strings"
)

// Result is the caller-facing outcome of one request.
type Result struct {
	Success   bool   `json:"success"`
	Platform  string `json:"platform,omitempty"`
	FilePath  string `json:"file_path,omitempty"`
	FileSize  string `json:"file_size,omitempty"`
	Format    string `json:"format,omitempty"`
	Quality   string `json:"quality,omitempty"`
	Subtitles string `json:"subtitles,omitempty"`
	Formats   string `json:"formats,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorKind Kind   `json:"error_kind,omitempty"`
	Attempts  int    `json:"attempts,omitempty"`
}

const (
	PlaceholderDownloaded = "Download completed"
	PlaceholderExtracted  = "Extraction completed"
	PlaceholderSize       = "Unknown"
	PlaceholderSubtitles  = "Embedded subtitles"
)

var (
	destinationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\[download\] Destination: (.+)$`),
		regexp.MustCompile(`^\[ExtractAudio\] Destination: (.+)$`),
		regexp.MustCompile(`^\[Merger\] Merging formats into "(.+)"$`),
		regexp.MustCompile(`^\[download\] (.+) has already been downloaded$`),
	}
	sizePattern      = regexp.MustCompile(`\[download\]\s+(\d+(?:\.\d+)?% of\s+~?\s*\d+(?:\.\d+)?\s*[KMGTP]?i?B)`)
	subtitlePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\[info\] Writing video subtitles to: (.+)$`),
		regexp.MustCompile(`\[download\] Downloading video subtitles (.+)$`),
	}
	formatRowPattern = regexp.MustCompile(`^\s*\d+`)
)

// ParseOutput turns the captured output of a successful run into a Result.
// Missing lines degrade to placeholders; they are never an error.
func ParseOutput(mode Mode, outcome *Outcome) *Result {
	res := &Result{Success: true}
	stdout := ""
	if outcome != nil {
		stdout = outcome.Stdout
	}
	lines := splitLines(stdout)

	if mode == ModeListFormats {
		res.Formats = formatRows(lines, stdout)
		return res
	}

	res.FilePath = PlaceholderDownloaded
	if mode == ModeAudio {
		res.FilePath = PlaceholderExtracted
	}
	if path := Destination(lines); path != "" {
		res.FilePath = path
	}
	res.FileSize = PlaceholderSize
	if size := ProgressSize(lines); size != "" {
		res.FileSize = size
	}
	if mode == ModeSubtitles {
		res.Subtitles = PlaceholderSubtitles
		if subs := subtitleInfo(lines); subs != "" {
			res.Subtitles = subs
		}
	}
	return res
}

// Destination returns the first announced output path.
func Destination(lines []string) string {
	for _, line := range lines {
		for _, re := range destinationPatterns {
			if m := re.FindStringSubmatch(line); m != nil {
				return strings.TrimSpace(m[1])
			}
		}
	}
	return ""
}

// ProgressSize returns the last "N% of SIZE" progress figure, which is the
// completed one when yt-dlp reaches 100%.
func ProgressSize(lines []string) string {
	found := ""
	for _, line := range lines {
		if m := sizePattern.FindStringSubmatch(line); m != nil {
			found = strings.Join(strings.Fields(m[1]), " ")
		}
	}
	return found
}

// TotalSize extracts the SIZE part of a "N% of SIZE" figure.
func TotalSize(progress string) string {
	_, after, ok := strings.Cut(progress, " of ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(after), "~"))
}

func subtitleInfo(lines []string) string {
	for _, line := range lines {
		for _, re := range subtitlePatterns {
			if m := re.FindStringSubmatch(line); m != nil {
				return strings.TrimSpace(m[1])
			}
		}
	}
	return ""
}

func formatRows(lines []string, raw string) string {
	var b strings.Builder
	for _, line := range lines {
		if formatRowPattern.MatchString(line) {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	if b.Len() == 0 {
		return raw
	}
	return b.String()
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	out := make([]string, 0, strings.Count(s, "\n")+1)
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, strings.TrimRight(line, " \t"))
		}
	}
	return out
}

var (
	transcoderMarkers  = []string{"ffmpeg", "ffprobe", "audio conversion"}
	toolMissingMarkers = []string{"command not found", "not recognized", "executable file not found"}
)

// Classify maps a runner error onto a caller-facing category.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	var se *StartError
	if errors.As(err, &se) {
		return &Error{Kind: KindToolMissing, Message: fmt.Sprintf("%s (%s)", toolMissingHint(), se.Err), Err: err}
	}
	switch {
	case errors.Is(err, ErrOutputLimit):
		return &Error{Kind: KindOutputLimit, Message: ErrOutputLimit.Error(), Err: err}
	case errors.Is(err, ErrTimeout):
		return &Error{Kind: KindTimeout, Message: ErrTimeout.Error(), Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Message: "request deadline exceeded", Err: err}
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindCancelled, Message: "request cancelled", Err: err}
	}

	text := err.Error()
	lower := strings.ToLower(text)
	for _, marker := range transcoderMarkers {
		if strings.Contains(lower, marker) {
			return &Error{Kind: KindTranscoderMissing, Message: transcoderHint(), Err: err}
		}
	}
	for _, marker := range toolMissingMarkers {
		if strings.Contains(lower, marker) {
			return &Error{Kind: KindToolMissing, Message: toolMissingHint(), Err: err}
		}
	}
	return &Error{Kind: KindProcessFailure, Message: text, Err: err}
}

func toolMissingHint() string {
	return "yt-dlp is not installed or not on PATH. Install with: pip install yt-dlp"
}

func transcoderHint() string {
	switch runtime.GOOS {
	case "darwin":
		return "ffmpeg is not installed. Install with: brew install ffmpeg"
	case "windows":
		return "ffmpeg is not installed. Install with: winget install ffmpeg"
	default:
		return "ffmpeg is not installed. Install with: sudo apt install ffmpeg"
	}
}
