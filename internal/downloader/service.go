// Package downloader runs one request through validation, path resolution,
// argument building, execution and parsing, and records the attempt.
package downloader

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tanq16/bingo/internal/history"
	"github.com/tanq16/bingo/internal/utils"
	"github.com/tanq16/bingo/internal/validate"
	"github.com/tanq16/bingo/internal/ytdlp"
)

// Recorder receives per-request measurements. *metrics.Metrics satisfies it.
type Recorder interface {
	Start() func()
	Observe(mode, platform, outcome string, took time.Duration, size int64)
	Retry(mode string)
}

type noopRecorder struct{}

func (noopRecorder) Start() func() { return func() {} }

func (noopRecorder) Observe(string, string, string, time.Duration, int64) {}

func (noopRecorder) Retry(string) {}

// Defaults fill request fields the caller left empty.
type Defaults struct {
	Quality      string
	CookieSource string
	AudioFormat  string
}

type Options struct {
	Sandbox    *validate.Sandbox
	Runner     ytdlp.Runner
	History    history.Store
	Metrics    Recorder
	Retry      RetryPolicy
	Defaults   Defaults
	FFmpegPath string
}

type Service struct {
	sandbox    *validate.Sandbox
	runner     ytdlp.Runner
	history    history.Store
	metrics    Recorder
	retry      RetryPolicy
	defaults   Defaults
	ffmpegPath string
	validator  *validator.Validate
	sleep      func(context.Context, time.Duration) error
}

func New(opts Options) *Service {
	s := &Service{
		sandbox:    opts.Sandbox,
		runner:     opts.Runner,
		history:    opts.History,
		metrics:    opts.Metrics,
		retry:      opts.Retry,
		defaults:   opts.Defaults,
		ffmpegPath: opts.FFmpegPath,
		validator:  newValidator(),
		sleep:      sleepContext,
	}
	if s.metrics == nil {
		s.metrics = noopRecorder{}
	}
	if s.retry.MaxAttempts == 0 {
		s.retry = DefaultRetryPolicy()
	}
	return s
}

func (s *Service) DownloadVideo(ctx context.Context, url, quality, cookies, destination string) *ytdlp.Result {
	return s.Download(ctx, Request{URL: url, Mode: ytdlp.ModeVideo, Quality: quality, CookieSource: cookies, Destination: destination})
}

func (s *Service) ExtractAudio(ctx context.Context, url, format, quality, cookies string) *ytdlp.Result {
	return s.Download(ctx, Request{URL: url, Mode: ytdlp.ModeAudio, AudioFormat: format, Quality: quality, CookieSource: cookies})
}

func (s *Service) DownloadWithSubtitles(ctx context.Context, url, quality, langs, cookies string) *ytdlp.Result {
	return s.Download(ctx, Request{URL: url, Mode: ytdlp.ModeSubtitles, Quality: quality, SubtitleLangs: langs, CookieSource: cookies})
}

func (s *Service) ListFormats(ctx context.Context, url, cookies string) *ytdlp.Result {
	return s.Download(ctx, Request{URL: url, Mode: ytdlp.ModeListFormats, CookieSource: cookies})
}

// Download runs the full pipeline. Every failure comes back as a Result with
// Success false; it never returns a nil Result.
func (s *Service) Download(ctx context.Context, req Request) *ytdlp.Result {
	start := time.Now()
	logger := log.With().Str("request_id", uuid.NewString()).Str("mode", string(req.Mode)).Logger()
	defer s.metrics.Start()()

	req = s.withDefaults(req)
	platform := utils.DetectPlatform(req.URL)

	if err := s.check(req); err != nil {
		logger.Warn().Str("op", "downloader/validate").Err(err).Msg("Rejected request")
		res := failure(&ytdlp.Error{Kind: ytdlp.KindValidation, Message: err.Error(), Err: err})
		s.metrics.Observe(string(req.Mode), platform, string(ytdlp.KindValidation), time.Since(start), 0)
		return res
	}

	dir := s.sandbox.DefaultDir()
	if req.Mode != ytdlp.ModeListFormats {
		resolved, err := s.sandbox.Resolve(req.Destination)
		if err != nil {
			logger.Warn().Str("op", "downloader/resolve").Err(err).Msg("Rejected destination")
			s.metrics.Observe(string(req.Mode), platform, string(ytdlp.KindValidation), time.Since(start), 0)
			return failure(&ytdlp.Error{Kind: ytdlp.KindValidation, Message: err.Error(), Err: err})
		}
		dir = resolved
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error().Str("op", "downloader/mkdir").Err(err).Msg("Error creating output directory")
			return s.finish(logger, req, platform, start, 0, nil, &ytdlp.Error{Kind: ytdlp.KindProcessFailure, Message: err.Error(), Err: err})
		}
	}

	args := ytdlp.BuildArgs(req.URL, ytdlp.Options{
		Mode:          req.Mode,
		Quality:       req.Quality,
		AudioFormat:   req.AudioFormat,
		SubtitleLangs: req.SubtitleLangs,
		CookieSource:  req.CookieSource,
		OutputDir:     dir,
		FFmpegPath:    s.ffmpegPath,
	})
	logger.Info().Str("op", "downloader/run").Str("platform", platform).Msgf("Starting %s", req.URL)

	outcome, attempts, classified := s.runWithRetry(ctx, logger, req.Mode, args)
	return s.finish(logger, req, platform, start, attempts, outcome, classified)
}

func (s *Service) runWithRetry(ctx context.Context, logger zerolog.Logger, mode ytdlp.Mode, args []string) (*ytdlp.Outcome, int, *ytdlp.Error) {
	var classified *ytdlp.Error
	for attempt := 1; attempt <= s.retry.attempts(); attempt++ {
		outcome, err := s.runner.Run(ctx, args)
		if err == nil {
			return outcome, attempt, nil
		}
		classified = ytdlp.Classify(err)
		if attempt == s.retry.attempts() || !Retryable(classified) {
			return outcome, attempt, classified
		}
		delay := s.retry.Delay(attempt)
		logger.Warn().Str("op", "downloader/retry").Int("attempt", attempt).Err(classified).Msgf("Transient failure, retrying in %s", delay)
		s.metrics.Retry(string(mode))
		if err := s.sleep(ctx, delay); err != nil {
			return outcome, attempt, ytdlp.Classify(err)
		}
	}
	return nil, s.retry.attempts(), classified
}

func (s *Service) finish(logger zerolog.Logger, req Request, platform string, start time.Time, attempts int, outcome *ytdlp.Outcome, failed *ytdlp.Error) *ytdlp.Result {
	var res *ytdlp.Result
	if failed != nil {
		res = failure(failed)
		logger.Error().Str("op", "downloader/finish").Str("kind", string(failed.Kind)).Msg(failed.Message)
	} else {
		res = ytdlp.ParseOutput(req.Mode, outcome)
		logger.Info().Str("op", "downloader/finish").Str("file", res.FilePath).Msg("Request completed")
	}
	res.Platform = platform
	res.Attempts = attempts
	if req.Mode != ytdlp.ModeListFormats {
		res.Quality = req.Quality
		if req.Mode == ytdlp.ModeAudio {
			res.Format = req.AudioFormat
		}
	}

	var size int64
	if req.Mode != ytdlp.ModeListFormats {
		size = fileSize(res)
		s.record(logger, req, platform, res, size)
	}
	outcomeLabel := "success"
	if !res.Success {
		outcomeLabel = string(res.ErrorKind)
	}
	s.metrics.Observe(string(req.Mode), platform, outcomeLabel, time.Since(start), size)
	return res
}

// record appends the attempt to history. Failures are logged and dropped.
func (s *Service) record(logger zerolog.Logger, req Request, platform string, res *ytdlp.Result, size int64) {
	if s.history == nil {
		return
	}
	rec := history.Record{
		URL:      req.URL,
		Platform: platform,
		FileSize: size,
		Success:  res.Success,
	}
	if res.Success && !isPlaceholder(res.FilePath) {
		rec.FilePath = res.FilePath
		rec.Title = utils.TitleFromPath(res.FilePath)
	}
	if _, err := s.history.Append(rec); err != nil {
		logger.Error().Str("op", "downloader/history").Err(err).Msg("Error recording download history")
	}
}

// fileSize prefers the size on disk and falls back to the size yt-dlp
// printed.
func fileSize(res *ytdlp.Result) int64 {
	if !res.Success {
		return 0
	}
	if !isPlaceholder(res.FilePath) {
		if info, err := os.Stat(res.FilePath); err == nil && !info.IsDir() {
			return info.Size()
		}
	}
	total := ytdlp.TotalSize(res.FileSize)
	if total == "" {
		return 0
	}
	n, err := humanize.ParseBytes(total)
	if err != nil {
		return 0
	}
	return int64(n)
}

func isPlaceholder(path string) bool {
	return path == "" || path == ytdlp.PlaceholderDownloaded || path == ytdlp.PlaceholderExtracted
}

func (s *Service) withDefaults(req Request) Request {
	req.URL = strings.TrimSpace(req.URL)
	if strings.TrimSpace(req.Quality) == "" {
		req.Quality = s.defaults.Quality
	}
	if strings.TrimSpace(req.CookieSource) == "" {
		req.CookieSource = s.defaults.CookieSource
	}
	if req.Mode == ytdlp.ModeAudio && strings.TrimSpace(req.AudioFormat) == "" {
		req.AudioFormat = s.defaults.AudioFormat
	}
	if req.Mode == ytdlp.ModeSubtitles && strings.TrimSpace(req.SubtitleLangs) == "" {
		req.SubtitleLangs = ytdlp.DefaultSubLangs
	}
	req.Quality = strings.ToLower(strings.TrimSpace(req.Quality))
	req.CookieSource = strings.ToLower(strings.TrimSpace(req.CookieSource))
	req.AudioFormat = strings.ToLower(strings.TrimSpace(req.AudioFormat))
	return req
}

func failure(err *ytdlp.Error) *ytdlp.Result {
	return &ytdlp.Result{Success: false, Error: err.Message, ErrorKind: err.Kind}
}

// ErrNoHistory is returned by the history operations when the service was
// built without a store.
var ErrNoHistory = errors.New("history store is not configured")

func (s *Service) History(limit int, platform string) ([]history.Record, error) {
	if s.history == nil {
		return nil, ErrNoHistory
	}
	return s.history.Query(limit, strings.TrimSpace(platform))
}

func (s *Service) Stats(platform string) (history.Stats, error) {
	if s.history == nil {
		return history.Stats{}, ErrNoHistory
	}
	return s.history.Aggregate(strings.TrimSpace(platform))
}

func (s *Service) Breakdown() (map[string]int, error) {
	if s.history == nil {
		return nil, ErrNoHistory
	}
	return s.history.Breakdown()
}

func (s *Service) Recent(hours int) ([]history.Record, error) {
	if s.history == nil {
		return nil, ErrNoHistory
	}
	return s.history.Recent(hours)
}

func (s *Service) Prune(maxAgeDays int) (int, error) {
	if s.history == nil {
		return 0, ErrNoHistory
	}
	removed, err := s.history.Prune(maxAgeDays)
	if err == nil {
		log.Info().Str("op", "downloader/prune").Msgf("Removed %d history records older than %d days", removed, maxAgeDays)
	}
	return removed, err
}
