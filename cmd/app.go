package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tanq16/bingo/internal/config"
	"github.com/tanq16/bingo/internal/downloader"
	"github.com/tanq16/bingo/internal/history"
	"github.com/tanq16/bingo/internal/metrics"
	"github.com/tanq16/bingo/internal/validate"
	"github.com/tanq16/bingo/internal/ytdlp"
)

// app holds the wired service shared by every subcommand.
type app struct {
	svc     *downloader.Service
	history history.Store
	metrics *metrics.Metrics
}

func newApp(cfg *config.Config) (*app, error) {
	sandbox, err := validate.NewSandbox(cfg.SandboxRoot, cfg.ToolDir)
	if err != nil {
		return nil, fmt.Errorf("sandbox: %w", err)
	}

	// A missing yt-dlp is reported per request as tool_missing, so startup
	// only warns and keeps the configured name.
	ytdlpPath, err := ytdlp.EnsureYtdlp(cfg.YtdlpPath)
	if err != nil {
		log.Warn().Str("op", "cmd/app").Msg(err.Error())
		ytdlpPath = cfg.YtdlpPath
	}
	runner := ytdlp.NewExecRunner(ytdlpPath)
	runner.Timeout = cfg.Timeout
	runner.MaxOutput = cfg.MaxOutputBytes
	runner.StreamFunc = func(stream, line string) {
		log.Debug().Str("op", "ytdlp/stream").Str("stream", stream).Msg(line)
	}

	ffmpegPath, err := ytdlp.EnsureFFmpeg(cfg.FFmpegPath)
	if err != nil {
		log.Debug().Str("op", "cmd/app").Msg("ffmpeg not located, leaving discovery to yt-dlp")
		ffmpegPath = ""
	}

	store, err := history.Open(cfg.History.Backend, cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	m := metrics.New("bingo")
	svc := downloader.New(downloader.Options{
		Sandbox: sandbox,
		Runner:  runner,
		History: store,
		Metrics: m,
		Retry: downloader.RetryPolicy{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.InitialDelay,
			Multiplier:   cfg.Retry.Multiplier,
		},
		Defaults: downloader.Defaults{
			Quality:      cfg.Defaults.Quality,
			CookieSource: cfg.Defaults.CookieSource,
			AudioFormat:  cfg.Defaults.AudioFormat,
		},
		FFmpegPath: ffmpegPath,
	})
	return &app{svc: svc, history: store, metrics: m}, nil
}

func (a *app) Close() {
	if err := a.history.Close(); err != nil {
		log.Warn().Str("op", "cmd/app").Msgf("closing history: %v", err)
	}
}

// mustApp is the command-side wrapper that exits on wiring errors.
func mustApp() *app {
	a, err := newApp(cfg)
	if err != nil {
		exitWith(err.Error())
	}
	return a
}
