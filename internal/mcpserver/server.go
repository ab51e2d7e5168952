// Package mcpserver exposes the download service as Model Context Protocol
// tools over stdio.
package mcpserver

import (
	"context"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/tanq16/bingo/internal/downloader"
	"github.com/tanq16/bingo/internal/history"
	"github.com/tanq16/bingo/internal/ytdlp"
)

// Downloader is the subset of *downloader.Service the tools call.
type Downloader interface {
	DownloadVideo(ctx context.Context, url, quality, cookies, destination string) *ytdlp.Result
	ExtractAudio(ctx context.Context, url, format, quality, cookies string) *ytdlp.Result
	DownloadWithSubtitles(ctx context.Context, url, quality, langs, cookies string) *ytdlp.Result
	ListFormats(ctx context.Context, url, cookies string) *ytdlp.Result
	History(limit int, platform string) ([]history.Record, error)
	Stats(platform string) (history.Stats, error)
	Breakdown() (map[string]int, error)
	Prune(maxAgeDays int) (int, error)
}

var _ Downloader = (*downloader.Service)(nil)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
	DefaultPruneDays    = 30
)

type Server struct {
	svc Downloader
	mcp *server.MCPServer
}

func New(svc Downloader, version string) *Server {
	s := &Server{svc: svc}
	s.mcp = server.NewMCPServer("bingo", version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.registerTools()
	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// Serve speaks the protocol on in/out until ctx is cancelled or in closes.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	log.Info().Str("op", "mcpserver/serve").Msg("Serving MCP over stdio")
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

func (s *Server) registerTools() {
	cookieOpt := func() mcp.ToolOption {
		return mcp.WithString("cookie_source",
			mcp.Description("Browser to read cookies from, or none; omitted uses the configured default"),
			mcp.Enum(downloader.CookieSources...),
		)
	}
	qualityOpt := func(desc string) mcp.ToolOption {
		return mcp.WithString("quality", mcp.Description(desc+"; omitted uses the configured default"))
	}
	urlOpt := mcp.WithString("url", mcp.Required(), mcp.Description("Video page URL (http or https)"))

	s.mcp.AddTool(mcp.NewTool("download_video",
		mcp.WithDescription("Download a video with yt-dlp"),
		urlOpt,
		qualityOpt("best, 1080, 720, 480 or 360"),
		cookieOpt(),
		mcp.WithString("destination_path", mcp.Description("Directory under the home directory, ~ allowed")),
	), s.downloadVideo)

	s.mcp.AddTool(mcp.NewTool("extract_audio",
		mcp.WithDescription("Download and extract the audio track"),
		urlOpt,
		mcp.WithString("audio_format",
			mcp.Description("Target audio format; omitted uses the configured default"),
			mcp.Enum(downloader.AudioFormats...),
		),
		qualityOpt("best, a bitrate such as 320, or a VBR level 0-9"),
		cookieOpt(),
	), s.extractAudio)

	s.mcp.AddTool(mcp.NewTool("download_with_subtitles",
		mcp.WithDescription("Download a video with embedded subtitles"),
		urlOpt,
		qualityOpt("best, 1080, 720, 480 or 360"),
		mcp.WithString("subtitle_langs", mcp.Description("Comma separated language codes or all"), mcp.DefaultString(ytdlp.DefaultSubLangs)),
		cookieOpt(),
	), s.downloadWithSubtitles)

	s.mcp.AddTool(mcp.NewTool("list_formats",
		mcp.WithDescription("List the formats available for a URL"),
		urlOpt,
		cookieOpt(),
	), s.listFormats)

	s.mcp.AddTool(mcp.NewTool("get_history",
		mcp.WithDescription("Show recent downloads, newest first"),
		mcp.WithNumber("limit", mcp.Description("Number of records"), mcp.DefaultNumber(DefaultHistoryLimit), mcp.Min(1), mcp.Max(MaxHistoryLimit)),
		mcp.WithString("platform", mcp.Description("Only records of this platform, e.g. YouTube")),
	), s.getHistory)

	s.mcp.AddTool(mcp.NewTool("get_stats",
		mcp.WithDescription("Download statistics, optionally for one platform"),
		mcp.WithString("platform", mcp.Description("Only records of this platform")),
	), s.getStats)

	s.mcp.AddTool(mcp.NewTool("prune_history",
		mcp.WithDescription("Remove history records older than the given number of days"),
		mcp.WithNumber("max_age_days", mcp.DefaultNumber(DefaultPruneDays), mcp.Min(1)),
	), s.pruneHistory)
}
