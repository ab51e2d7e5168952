// Package api serves the download service as a small JSON HTTP API.
package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/tanq16/bingo/internal/downloader"
	"github.com/tanq16/bingo/internal/history"
	"github.com/tanq16/bingo/internal/ytdlp"
)

// Service is the subset of *downloader.Service the handlers call.
type Service interface {
	Download(ctx context.Context, req downloader.Request) *ytdlp.Result
	ListFormats(ctx context.Context, url, cookies string) *ytdlp.Result
	History(limit int, platform string) ([]history.Record, error)
	Recent(hours int) ([]history.Record, error)
	Stats(platform string) (history.Stats, error)
	Breakdown() (map[string]int, error)
	Prune(maxAgeDays int) (int, error)
}

var _ Service = (*downloader.Service)(nil)

type Options struct {
	APIKey    string
	RateLimit float64
	Burst     int
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

const apiKeyHeader = "X-API-Key"

type Server struct {
	*echo.Echo
	svc Service
}

func New(svc Service, opts Options) *Server {
	s := &Server{Echo: echo.New(), svc: svc}
	s.HideBanner = true
	s.HidePort = true
	s.Use(middleware.BodyLimit("64K"))
	s.Use(middleware.Recover())
	s.Use(middleware.RequestID())
	s.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("op", "api/request").
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	}))

	s.GET("/health", s.handleHealth)
	if opts.Metrics != nil {
		s.GET("/metrics", echo.WrapHandler(opts.Metrics))
	}

	g := s.Group("/api")
	if opts.RateLimit > 0 {
		g.Use(rateLimiter(opts.RateLimit, opts.Burst))
	}
	if opts.APIKey != "" {
		g.Use(apiKeyAuth(opts.APIKey))
	}
	g.POST("/download", s.handleDownload)
	g.GET("/formats", s.handleFormats)
	g.GET("/history", s.handleHistory)
	g.GET("/history/recent", s.handleRecent)
	g.DELETE("/history", s.handlePrune)
	g.GET("/stats", s.handleStats)
	g.GET("/stats/by-platform", s.handleBreakdown)
	return s
}

func rateLimiter(perSecond float64, burst int) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(perSecond),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, errorBody{Error: "unable to identify client"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			log.Warn().Str("op", "api/ratelimit").Str("client", identifier).Msg("Rate limit exceeded")
			return c.JSON(http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
		},
	})
}

func apiKeyAuth(key string) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:" + apiKeyHeader,
		Validator: func(got string, c echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(got), []byte(key)) == 1, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return c.JSON(http.StatusUnauthorized, errorBody{Error: "invalid or missing API key"})
		},
	})
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()
	log.Info().Str("op", "api/run").Msgf("Listening on %s", addr)
	if err := s.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
