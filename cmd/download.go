package cmd

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tanq16/bingo/internal/downloader"
	"github.com/tanq16/bingo/internal/output"
	"github.com/tanq16/bingo/internal/ytdlp"
)

func exitWith(msg string) {
	output.PrintError(msg)
	os.Exit(1)
}

// runSingle executes one request and exits non-zero when it fails.
func runSingle(req downloader.Request) {
	a := mustApp()
	defer a.Close()
	ctx, stop := signalContext()
	defer stop()

	log.Debug().Str("op", "cmd/download").Msgf("Running %s for %s", req.Mode, req.URL)
	res := a.svc.Download(ctx, req)
	output.PrintResult(res)
	if !res.Success {
		a.Close()
		os.Exit(1)
	}
}

func newVideoCmd() *cobra.Command {
	var quality, cookies, destination string
	cmd := &cobra.Command{
		Use:     "video [URL] [--quality QUALITY] [--output DIR]",
		Short:   "Download a video",
		Aliases: []string{"v"},
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runSingle(downloader.Request{
				URL:          args[0],
				Mode:         ytdlp.ModeVideo,
				Quality:      quality,
				CookieSource: cookies,
				Destination:  destination,
			})
		},
	}
	cmd.Flags().StringVarP(&quality, "quality", "q", "", "Video quality (best, 1080, 720, 480, 360)")
	cmd.Flags().StringVarP(&cookies, "cookies", "c", "", "Browser to read cookies from, or none")
	cmd.Flags().StringVarP(&destination, "output", "o", "", "Destination directory inside the sandbox root")
	return cmd
}

func newAudioCmd() *cobra.Command {
	var format, quality, cookies string
	cmd := &cobra.Command{
		Use:     "audio [URL] [--format FORMAT]",
		Short:   "Extract the audio track",
		Aliases: []string{"a"},
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runSingle(downloader.Request{
				URL:          args[0],
				Mode:         ytdlp.ModeAudio,
				AudioFormat:  format,
				Quality:      quality,
				CookieSource: cookies,
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Audio format (mp3, wav, m4a, flac, aac, opus)")
	cmd.Flags().StringVarP(&quality, "quality", "q", "", "Audio quality")
	cmd.Flags().StringVarP(&cookies, "cookies", "c", "", "Browser to read cookies from, or none")
	return cmd
}

func newSubsCmd() *cobra.Command {
	var quality, langs, cookies string
	cmd := &cobra.Command{
		Use:   "subs [URL] [--langs LANGS]",
		Short: "Download a video with embedded subtitles",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runSingle(downloader.Request{
				URL:           args[0],
				Mode:          ytdlp.ModeSubtitles,
				Quality:       quality,
				SubtitleLangs: langs,
				CookieSource:  cookies,
			})
		},
	}
	cmd.Flags().StringVarP(&quality, "quality", "q", "", "Video quality")
	cmd.Flags().StringVarP(&langs, "langs", "l", "all", "Comma separated subtitle languages, or all")
	cmd.Flags().StringVarP(&cookies, "cookies", "c", "", "Browser to read cookies from, or none")
	return cmd
}

func newFormatsCmd() *cobra.Command {
	var cookies string
	cmd := &cobra.Command{
		Use:   "formats [URL]",
		Short: "List the formats available for a URL",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runSingle(downloader.Request{
				URL:          args[0],
				Mode:         ytdlp.ModeListFormats,
				CookieSource: cookies,
			})
		},
	}
	cmd.Flags().StringVarP(&cookies, "cookies", "c", "", "Browser to read cookies from, or none")
	return cmd
}
