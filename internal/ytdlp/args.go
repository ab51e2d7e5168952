package ytdlp

import (
	"path/filepath"
	"strconv"
	"strings"
)

type Mode string

const (
	ModeVideo       Mode = "video"
	ModeAudio       Mode = "audio"
	ModeSubtitles   Mode = "video+subtitles"
	ModeListFormats Mode = "list-formats"
)

const (
	QualityBest        = "best"
	DefaultAudioFormat = "mp3"
	DefaultSubLangs    = "all"
	DefaultCookies     = "chrome"
	NoCookies          = "none"
	OutputTemplate     = "%(title)s.%(ext)s"
)

var ytdlpFormats = map[string]string{
	"best": "bestvideo+bestaudio/best",
	"1080": "bestvideo[height<=1080]+bestaudio/best[height<=1080]",
	"720":  "bestvideo[height<=720]+bestaudio/best[height<=720]",
	"480":  "bestvideo[height<=480]+bestaudio/best[height<=480]",
	"360":  "bestvideo[height<=360]+bestaudio/best[height<=360]",
}

// Options are the already-validated inputs for one yt-dlp invocation.
type Options struct {
	Mode          Mode
	Quality       string
	AudioFormat   string
	SubtitleLangs string
	CookieSource  string
	OutputDir     string
	FFmpegPath    string
}

// FormatSelector maps a quality name onto a yt-dlp format expression.
// Unknown qualities fall back to the unconstrained best selector.
func FormatSelector(quality string) string {
	if f, ok := ytdlpFormats[strings.ToLower(strings.TrimSpace(quality))]; ok {
		return f
	}
	return ytdlpFormats[QualityBest]
}

// BuildArgs returns the argument vector for yt-dlp. The URL is always the
// last element and is preceded by "--" so it can never be read as a flag.
func BuildArgs(url string, opts Options) []string {
	args := []string{
		"--newline",
		"--no-playlist",
		"-o", filepath.Join(opts.OutputDir, OutputTemplate),
	}
	if opts.FFmpegPath != "" {
		args = append(args, "--ffmpeg-location", opts.FFmpegPath)
	}

	switch opts.Mode {
	case ModeListFormats:
		args = append(args, "-F")
	case ModeAudio:
		args = append(args, "-x", "--audio-format", orDefault(opts.AudioFormat, DefaultAudioFormat))
		if q := strings.TrimSpace(opts.Quality); q != "" && !strings.EqualFold(q, QualityBest) {
			args = append(args, "--audio-quality", audioQuality(q))
		}
	case ModeSubtitles:
		args = append(args,
			"-f", FormatSelector(opts.Quality),
			"--write-subs",
			"--sub-langs", orDefault(opts.SubtitleLangs, DefaultSubLangs),
			"--embed-subs",
		)
	default:
		args = append(args, "-f", FormatSelector(opts.Quality))
	}

	if c := strings.TrimSpace(opts.CookieSource); c != "" && !strings.EqualFold(c, NoCookies) {
		args = append(args, "--cookies-from-browser", c)
	}

	return append(args, "--", url)
}

// audioQuality turns plain bitrates such as "320" into "320K"; values 0-10
// are VBR levels and pass through unchanged.
func audioQuality(q string) string {
	if n, err := strconv.Atoi(q); err == nil && n > 10 {
		return q + "K"
	}
	return q
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
