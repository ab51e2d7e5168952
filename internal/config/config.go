package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tanq16/bingo/internal/utils"
)

type Config struct {
	Debug   bool   `mapstructure:"debug"`
	LogFile string `mapstructure:"log_file"`

	YtdlpPath      string        `mapstructure:"ytdlp_path"`
	FFmpegPath     string        `mapstructure:"ffmpeg_path"`
	SandboxRoot    string        `mapstructure:"sandbox_root" validate:"required"`
	ToolDir        string        `mapstructure:"tool_dir" validate:"required,excludesall=/\\"`
	Timeout        time.Duration `mapstructure:"timeout" validate:"gte=0"`
	MaxOutputBytes int64         `mapstructure:"max_output_bytes" validate:"gt=0"`

	Retry    RetryConfig    `mapstructure:"retry"`
	History  HistoryConfig  `mapstructure:"history"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
}

type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts" validate:"gte=1,lte=10"`
	InitialDelay time.Duration `mapstructure:"initial_delay" validate:"gte=0"`
	Multiplier   float64       `mapstructure:"multiplier" validate:"gte=1"`
}

type HistoryConfig struct {
	Backend string `mapstructure:"backend" validate:"oneof=json sqlite"`
	Path    string `mapstructure:"path"`
}

type HTTPConfig struct {
	Addr      string  `mapstructure:"addr" validate:"required,hostname_port"`
	APIKey    string  `mapstructure:"api_key"`
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"`
	Burst     int     `mapstructure:"burst" validate:"gte=0"`
}

type DefaultsConfig struct {
	Quality      string `mapstructure:"quality" validate:"required,alphanum"`
	CookieSource string `mapstructure:"cookie_source" validate:"required,alpha"`
	AudioFormat  string `mapstructure:"audio_format" validate:"oneof=mp3 wav m4a flac aac opus"`
}

// Loader wraps a viper instance so flags can be bound before Load.
type Loader struct {
	v *viper.Viper
}

func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix("BINGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return &Loader{v: v}
}

func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()
	v.SetDefault("debug", false)
	v.SetDefault("log_file", "")
	v.SetDefault("ytdlp_path", "")
	v.SetDefault("ffmpeg_path", "")
	v.SetDefault("sandbox_root", home)
	v.SetDefault("tool_dir", utils.DownloaderName)
	v.SetDefault("timeout", time.Hour)
	v.SetDefault("max_output_bytes", 10<<20)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_delay", 5*time.Second)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("history.backend", "json")
	v.SetDefault("history.path", "")
	v.SetDefault("http.addr", "127.0.0.1:8765")
	v.SetDefault("http.api_key", "")
	v.SetDefault("http.rate_limit", 1.0)
	v.SetDefault("http.burst", 10)
	v.SetDefault("defaults.quality", "best")
	v.SetDefault("defaults.cookie_source", "chrome")
	v.SetDefault("defaults.audio_format", "mp3")
}

// BindFlag ties a cobra flag to a config key; an explicitly set flag wins
// over file and environment.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag for config key %s", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads an optional .env file in the working directory, then the config
// file (explicit path, or the default one when it exists), then validates.
func (l *Loader) Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if configFile != "" {
		l.v.SetConfigFile(configFile)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else if path := DefaultConfigFile(); path != "" {
		if _, err := os.Stat(path); err == nil {
			l.v.SetConfigFile(path)
			if err := l.v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}
	if used := l.v.ConfigFileUsed(); used != "" {
		log.Debug().Str("op", "config/load").Msgf("Using config file %s", used)
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.SandboxRoot = expandHome(cfg.SandboxRoot)
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath(cfg.SandboxRoot, cfg.History.Backend)
	} else {
		cfg.History.Path = expandHome(cfg.History.Path)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Load is a shorthand for NewLoader().Load(configFile).
func Load(configFile string) (*Config, error) {
	return NewLoader().Load(configFile)
}

func DefaultConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, utils.DefaultConfigDir, "config.yaml")
}

func DefaultHistoryPath(root, backend string) string {
	if backend == "sqlite" {
		return filepath.Join(root, utils.DefaultHistoryDB)
	}
	return filepath.Join(root, utils.DefaultHistoryJSON)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
