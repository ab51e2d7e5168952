package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/tanq16/bingo/internal/downloader"
	"github.com/tanq16/bingo/internal/history"
	"github.com/tanq16/bingo/internal/ytdlp"
)

// StatusClientClosedRequest is the nginx convention for a caller that went
// away before the response was ready.
const StatusClientClosedRequest = 499

type errorBody struct {
	Error string `json:"error"`
}

type historyBody struct {
	Downloads []history.Record `json:"downloads"`
}

type pruneBody struct {
	Removed    int `json:"removed"`
	MaxAgeDays int `json:"max_age_days"`
}

type statsBody struct {
	history.Stats
	SuccessRate float64 `json:"successRate"`
}

// StatusFor maps a failure kind onto an HTTP status.
func StatusFor(kind ytdlp.Kind) int {
	switch kind {
	case "":
		return http.StatusOK
	case ytdlp.KindValidation:
		return http.StatusBadRequest
	case ytdlp.KindToolMissing, ytdlp.KindTranscoderMissing:
		return http.StatusServiceUnavailable
	case ytdlp.KindOutputLimit:
		return http.StatusRequestEntityTooLarge
	case ytdlp.KindTimeout:
		return http.StatusGatewayTimeout
	case ytdlp.KindCancelled:
		return StatusClientClosedRequest
	}
	return http.StatusBadGateway
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDownload(c echo.Context) error {
	var req downloader.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid json body"})
	}
	if req.Mode == "" {
		req.Mode = ytdlp.ModeVideo
	}
	res := s.svc.Download(c.Request().Context(), req)
	return c.JSON(StatusFor(res.ErrorKind), res)
}

func (s *Server) handleFormats(c echo.Context) error {
	res := s.svc.ListFormats(c.Request().Context(), c.QueryParam("url"), c.QueryParam("cookie_source"))
	return c.JSON(StatusFor(res.ErrorKind), res)
}

func (s *Server) handleHistory(c echo.Context) error {
	limit, err := intParam(c, "limit", 20, 1, 100)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
	}
	recs, err := s.svc.History(limit, c.QueryParam("platform"))
	if err != nil {
		return s.internalError(c, "api/history", err)
	}
	return c.JSON(http.StatusOK, historyBody{Downloads: recs})
}

func (s *Server) handleRecent(c echo.Context) error {
	hours, err := intParam(c, "hours", 24, 1, 24*366)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
	}
	recs, err := s.svc.Recent(hours)
	if err != nil {
		return s.internalError(c, "api/history/recent", err)
	}
	return c.JSON(http.StatusOK, historyBody{Downloads: recs})
}

func (s *Server) handlePrune(c echo.Context) error {
	days, err := intParam(c, "max_age_days", 30, 1, 36500)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
	}
	removed, err := s.svc.Prune(days)
	if err != nil {
		return s.internalError(c, "api/prune", err)
	}
	return c.JSON(http.StatusOK, pruneBody{Removed: removed, MaxAgeDays: days})
}

func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.svc.Stats(c.QueryParam("platform"))
	if err != nil {
		return s.internalError(c, "api/stats", err)
	}
	return c.JSON(http.StatusOK, statsBody{Stats: stats, SuccessRate: stats.SuccessRate()})
}

func (s *Server) handleBreakdown(c echo.Context) error {
	breakdown, err := s.svc.Breakdown()
	if err != nil {
		return s.internalError(c, "api/breakdown", err)
	}
	return c.JSON(http.StatusOK, breakdown)
}

func (s *Server) internalError(c echo.Context, op string, err error) error {
	log.Error().Str("op", op).Err(err).Msg("Error reading history")
	return c.JSON(http.StatusInternalServerError, errorBody{Error: err.Error()})
}

type paramError struct{ name, reason string }

func (e *paramError) Error() string { return "invalid " + e.name + ": " + e.reason }

func intParam(c echo.Context, name string, def, lo, hi int) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{name, "not an integer"}
	}
	if n < lo || n > hi {
		return 0, &paramError{name, "must be between " + strconv.Itoa(lo) + " and " + strconv.Itoa(hi)}
	}
	return n, nil
}
