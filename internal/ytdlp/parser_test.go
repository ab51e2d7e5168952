package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Captured from yt-dlp 2024.12.x with --newline.
const videoFixture = `[youtube] Extracting URL: https://www.youtube.com/watch?v=abc
[youtube] abc: Downloading webpage
[info] abc: Downloading 1 format(s): 137+140
[download] Destination: /home/alice/Downloads/yt-dlp/Some Title.f137.mp4
[download]   0.0% of   10.00MiB at  Unknown B/s ETA Unknown
[download]  50.0% of   10.00MiB at    2.00MiB/s ETA 00:02
[download] 100% of   10.00MiB in 00:00:04 at 2.31MiB/s
[download] Destination: /home/alice/Downloads/yt-dlp/Some Title.f140.m4a
[download] 100% of    1.20MiB in 00:00:01 at 1.10MiB/s
[Merger] Merging formats into "/home/alice/Downloads/yt-dlp/Some Title.mp4"
Deleting original file /home/alice/Downloads/yt-dlp/Some Title.f137.mp4 (pass -k to keep)
`

const audioFixture = `[youtube] abc: Downloading webpage
[download] Destination: /tmp/out/Song.webm
[download] 100% of    3.51MiB in 00:00:02 at 1.70MiB/s
[ExtractAudio] Destination: /tmp/out/Song.mp3
Deleting original file /tmp/out/Song.webm (pass -k to keep)
`

const subsFixture = `[info] abc: Downloading subtitles: en
[info] Writing video subtitles to: /tmp/out/Clip.en.vtt
[download] Destination: /tmp/out/Clip.en.vtt
[download] 100% of   12.34KiB in 00:00:00 at 200.00KiB/s
[download] Destination: /tmp/out/Clip.mp4
[download] 100% of ~  88.10MiB in 00:00:09 at 9.50MiB/s (frag 20/20)
[EmbedSubtitle] Embedding subtitles in "/tmp/out/Clip.mp4"
`

const formatsFixture = `[youtube] abc: Downloading webpage
[info] Available formats for abc:
ID  EXT   RESOLUTION FPS │   FILESIZE   TBR PROTO │ VCODEC
─────────────────────────────────────────────────────────
sb0 mhtml 48x27        0 │                  mhtml │ images
139 m4a   audio only     │    1.04MiB   49k https │ audio only
140 m4a   audio only     │    2.77MiB  129k https │ audio only
137 mp4   1920x1080   30 │   38.23MiB 1789k https │ avc1.640028
`

func TestParseOutput_Video(t *testing.T) {
	res := ParseOutput(ModeVideo, &Outcome{Stdout: videoFixture})
	require.True(t, res.Success)
	assert.Equal(t, "/home/alice/Downloads/yt-dlp/Some Title.f137.mp4", res.FilePath)
	assert.Equal(t, "100% of 1.20MiB", res.FileSize)
	assert.Empty(t, res.Subtitles)
	assert.Empty(t, res.Formats)
}

func TestParseOutput_ExactDestination(t *testing.T) {
	res := ParseOutput(ModeVideo, &Outcome{Stdout: "[download] Destination: /home/alice/Downloads/yt-dlp/x (1).mkv\n"})
	require.True(t, res.Success)
	assert.Equal(t, "/home/alice/Downloads/yt-dlp/x (1).mkv", res.FilePath)
	assert.Equal(t, PlaceholderSize, res.FileSize)
}

func TestParseOutput_Placeholders(t *testing.T) {
	res := ParseOutput(ModeVideo, &Outcome{Stdout: "nothing useful\n"})
	require.True(t, res.Success)
	assert.Equal(t, PlaceholderDownloaded, res.FilePath)
	assert.Equal(t, PlaceholderSize, res.FileSize)

	res = ParseOutput(ModeAudio, &Outcome{})
	assert.Equal(t, PlaceholderExtracted, res.FilePath)

	res = ParseOutput(ModeSubtitles, nil)
	assert.Equal(t, PlaceholderSubtitles, res.Subtitles)
}

func TestParseOutput_AlreadyDownloaded(t *testing.T) {
	res := ParseOutput(ModeVideo, &Outcome{Stdout: "[download] /tmp/out/Old.mp4 has already been downloaded\n"})
	assert.Equal(t, "/tmp/out/Old.mp4", res.FilePath)
}

func TestParseOutput_Audio(t *testing.T) {
	res := ParseOutput(ModeAudio, &Outcome{Stdout: audioFixture})
	assert.Equal(t, "/tmp/out/Song.webm", res.FilePath)
	assert.Equal(t, "100% of 3.51MiB", res.FileSize)
}

func TestParseOutput_Subtitles(t *testing.T) {
	res := ParseOutput(ModeSubtitles, &Outcome{Stdout: subsFixture})
	assert.Equal(t, "/tmp/out/Clip.en.vtt", res.Subtitles)
	assert.Equal(t, "/tmp/out/Clip.en.vtt", res.FilePath)
	assert.Equal(t, "100% of ~ 88.10MiB", res.FileSize)
	assert.Equal(t, "88.10MiB", TotalSize(res.FileSize))
}

func TestParseOutput_Formats(t *testing.T) {
	res := ParseOutput(ModeListFormats, &Outcome{Stdout: formatsFixture})
	require.True(t, res.Success)
	assert.Equal(t,
		"139 m4a   audio only     │    1.04MiB   49k https │ audio only\n"+
			"140 m4a   audio only     │    2.77MiB  129k https │ audio only\n"+
			"137 mp4   1920x1080   30 │   38.23MiB 1789k https │ avc1.640028\n",
		res.Formats)
	assert.Empty(t, res.FilePath)

	raw := "no table here\n"
	res = ParseOutput(ModeListFormats, &Outcome{Stdout: raw})
	assert.Equal(t, raw, res.Formats)
}

func TestTotalSize(t *testing.T) {
	assert.Equal(t, "10.00MiB", TotalSize("100% of 10.00MiB"))
	assert.Equal(t, "", TotalSize("Unknown"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"start not found", &StartError{Path: "yt-dlp", Err: exec.ErrNotFound}, KindToolMissing},
		{"start other", &StartError{Path: "yt-dlp", Err: errors.New("text file busy")}, KindToolMissing},
		{"ffmpeg not found", &ExitError{ExitCode: 127, Stderr: "ffmpeg: command not found"}, KindTranscoderMissing},
		{"postprocessing", &ExitError{ExitCode: 1, Stderr: "ERROR: Postprocessing: ffprobe and ffmpeg not found. Please install or provide the path using --ffmpeg-location"}, KindTranscoderMissing},
		{"audio conversion", &ExitError{ExitCode: 1, Stderr: "ERROR: audio conversion failed: ..."}, KindTranscoderMissing},
		{"shell missing", &ExitError{ExitCode: 127, Stderr: "sh: yt-dlp: command not found"}, KindToolMissing},
		{"windows missing", &ExitError{ExitCode: 1, Stderr: "'yt-dlp' is not recognized as an internal or external command"}, KindToolMissing},
		{"output limit", ErrOutputLimit, KindOutputLimit},
		{"timeout", ErrTimeout, KindTimeout},
		{"deadline", fmt.Errorf("run: %w", context.DeadlineExceeded), KindTimeout},
		{"cancelled", context.Canceled, KindCancelled},
		{"generic", &ExitError{ExitCode: 1, Stderr: "ERROR: [youtube] abc: Video unavailable"}, KindProcessFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.kind, got.Kind)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassify_GenericPassesTextThrough(t *testing.T) {
	stderr := "ERROR: [youtube] abc: Sign in to confirm your age"
	got := Classify(&ExitError{ExitCode: 1, Stderr: stderr})
	assert.Equal(t, KindProcessFailure, got.Kind)
	assert.Equal(t, stderr, got.Message)

	got = Classify(&ExitError{ExitCode: 2})
	assert.Equal(t, "exit code 2", got.Message)
}

func TestClassify_Hints(t *testing.T) {
	got := Classify(&StartError{Path: "yt-dlp", Err: exec.ErrNotFound})
	assert.Equal(t, KindToolMissing, got.Kind)
	assert.Contains(t, got.Message, "pip install yt-dlp")
	assert.Contains(t, got.Message, exec.ErrNotFound.Error())

	got = Classify(&StartError{Path: "yt-dlp", Err: errors.New("text file busy")})
	assert.Contains(t, got.Message, "text file busy")

	got = Classify(&ExitError{ExitCode: 1, Stderr: "ffmpeg not found"})
	assert.Contains(t, got.Message, "ffmpeg is not installed")
}

func TestClassify_Nil(t *testing.T) {
	assert.Nil(t, Classify(nil))
}
