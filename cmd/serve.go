package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tanq16/bingo/internal/api"
	"github.com/tanq16/bingo/internal/mcpserver"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the download tools over MCP stdio",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			a := mustApp()
			defer a.Close()
			ctx, stop := signalContext()
			defer stop()
			if err := mcpserver.New(a.svc, BingoVersion).Serve(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
				exitWith("MCP server stopped: " + err.Error())
			}
		},
	}
	return cmd
}

func newHTTPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http [--addr HOST:PORT]",
		Short: "Serve the JSON HTTP API",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			a := mustApp()
			defer a.Close()
			ctx, stop := signalContext()
			defer stop()
			srv := api.New(a.svc, api.Options{
				APIKey:    cfg.HTTP.APIKey,
				RateLimit: cfg.HTTP.RateLimit,
				Burst:     cfg.HTTP.Burst,
				Metrics:   a.metrics.Handler(),
			})
			if err := srv.Run(ctx, cfg.HTTP.Addr); err != nil {
				exitWith("HTTP server stopped: " + err.Error())
			}
		},
	}
	cmd.Flags().String("addr", "127.0.0.1:8765", "Listen address")
	cmd.Flags().String("api-key", "", "Require this key in the X-API-Key header")
	if err := loader.BindFlag("http.addr", cmd.Flags().Lookup("addr")); err != nil {
		panic(err)
	}
	if err := loader.BindFlag("http.api_key", cmd.Flags().Lookup("api-key")); err != nil {
		panic(err)
	}
	return cmd
}
