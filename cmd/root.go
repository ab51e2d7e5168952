package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tanq16/bingo/internal/config"
	"github.com/tanq16/bingo/internal/output"
	"github.com/tanq16/bingo/internal/utils"
)

var (
	configFile string
	loader     = config.NewLoader()
	cfg        *config.Config
	logFile    *os.File
)

var BingoVersion = "dev"

var rootCmd = &cobra.Command{
	Use:           "bingo",
	Short:         "Bingo is a yt-dlp MCP server, HTTP API and CLI",
	Version:       BingoVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loader.Load(configFile)
		if err != nil {
			return err
		}
		cfg = loaded
		utils.InitLogger(cfg.Debug)
		if cfg.LogFile != "" {
			f, err := utils.AddLogFile(cfg.LogFile)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			logFile = f
		}
		log.Debug().Str("op", "cmd/root").Msgf("Sandbox root %s, history %s (%s)", cfg.SandboxRoot, cfg.History.Path, cfg.History.Backend)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		output.PrintError(err.Error())
		os.Exit(1)
	}
}

func init() {
	utils.InitLogger(false)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/.config/bingo/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("ytdlp", "", "Path to the yt-dlp executable")
	rootCmd.PersistentFlags().String("ffmpeg", "", "Path to the ffmpeg executable")
	rootCmd.PersistentFlags().Duration("timeout", time.Hour, "Per-invocation yt-dlp timeout (0 disables)")
	rootCmd.PersistentFlags().String("sandbox-root", "", "Directory every download must stay inside (default home)")
	rootCmd.PersistentFlags().String("history-backend", "json", "History backend (json, sqlite)")

	bindings := map[string]string{
		"debug":           "debug",
		"ytdlp_path":      "ytdlp",
		"ffmpeg_path":     "ffmpeg",
		"timeout":         "timeout",
		"sandbox_root":    "sandbox-root",
		"history.backend": "history-backend",
	}
	for key, name := range bindings {
		if err := loader.BindFlag(key, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newHTTPCmd())
	rootCmd.AddCommand(newVideoCmd())
	rootCmd.AddCommand(newAudioCmd())
	rootCmd.AddCommand(newSubsCmd())
	rootCmd.AddCommand(newFormatsCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newPruneCmd())
}
