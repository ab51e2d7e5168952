package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog/log"

	"github.com/tanq16/bingo/internal/ytdlp"
)

func (s *Server) downloadVideo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := s.svc.DownloadVideo(ctx, url,
		req.GetString("quality", ""),
		req.GetString("cookie_source", ""),
		req.GetString("destination_path", ""),
	)
	return resultFor(res, formatDownload), nil
}

func (s *Server) extractAudio(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := s.svc.ExtractAudio(ctx, url,
		req.GetString("audio_format", ""),
		req.GetString("quality", ""),
		req.GetString("cookie_source", ""),
	)
	return resultFor(res, formatAudio), nil
}

func (s *Server) downloadWithSubtitles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := s.svc.DownloadWithSubtitles(ctx, url,
		req.GetString("quality", ""),
		req.GetString("subtitle_langs", ytdlp.DefaultSubLangs),
		req.GetString("cookie_source", ""),
	)
	return resultFor(res, formatSubtitles), nil
}

func (s *Server) listFormats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := s.svc.ListFormats(ctx, url, req.GetString("cookie_source", ""))
	return resultFor(res, formatFormats), nil
}

func (s *Server) getHistory(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := min(max(req.GetInt("limit", DefaultHistoryLimit), 1), MaxHistoryLimit)
	recs, err := s.svc.History(limit, req.GetString("platform", ""))
	if err != nil {
		log.Error().Str("op", "mcpserver/get_history").Err(err).Msg("Error reading history")
		return mcp.NewToolResultError(fmt.Sprintf("Error reading history: %v", err)), nil
	}
	return mcp.NewToolResultText(formatHistory(recs)), nil
}

func (s *Server) getStats(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	platform := req.GetString("platform", "")
	stats, err := s.svc.Stats(platform)
	if err != nil {
		log.Error().Str("op", "mcpserver/get_stats").Err(err).Msg("Error reading stats")
		return mcp.NewToolResultError(fmt.Sprintf("Error reading stats: %v", err)), nil
	}
	var breakdown map[string]int
	if platform == "" {
		if breakdown, err = s.svc.Breakdown(); err != nil {
			log.Warn().Str("op", "mcpserver/get_stats").Err(err).Msg("Error reading platform breakdown")
		}
	}
	return mcp.NewToolResultText(formatStats(stats, breakdown)), nil
}

func (s *Server) pruneHistory(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days := req.GetInt("max_age_days", DefaultPruneDays)
	if days < 1 {
		return mcp.NewToolResultError("max_age_days must be at least 1"), nil
	}
	removed, err := s.svc.Prune(days)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error pruning history: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed %d records older than %d days", removed, days)), nil
}

func resultFor(res *ytdlp.Result, format func(*ytdlp.Result) string) *mcp.CallToolResult {
	if !res.Success {
		return mcp.NewToolResultError(formatFailure(res))
	}
	return mcp.NewToolResultText(format(res))
}
