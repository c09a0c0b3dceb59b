package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/auctioneer/go/internal/dbconfig"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Player source kinds
const (
	SourceFile     = "file"
	SourceSheets   = "sheets"
	SourcePostgres = "postgres"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Host               string          `yaml:"host"`
	Port               string          `yaml:"port"`
	LogLevel           string          `yaml:"log_level"`
	CORSAllowedOrigins []string        `yaml:"cors_allowed_origins"`
	Players            PlayersConfig   `yaml:"players"`
	Database           dbconfig.Config `yaml:"database"`
	NATS               NATSConfig      `yaml:"nats"`
}

// Default load timeouts when none is configured. Reset runs inside the hub's
// command loop, so remote sources get the shorter bound.
const (
	DefaultFileLoadTimeout   = 30 * time.Second
	DefaultRemoteLoadTimeout = 10 * time.Second
)

type PlayersConfig struct {
	Source           string        `yaml:"source"`
	File             string        `yaml:"file"`
	LoadTimeout      time.Duration `yaml:"load_timeout"` // zero picks a per-source default
	SpreadsheetID    string        `yaml:"spreadsheet_id"`
	SpreadsheetRange string        `yaml:"spreadsheet_range"`
	CredentialsFile  string        `yaml:"credentials_file"`
}

// NATSConfig enables the event stream when URL is set
type NATSConfig struct {
	URL           string `yaml:"url"`
	StreamName    string `yaml:"stream_name"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

func Default() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               "5000",
		LogLevel:           "info",
		CORSAllowedOrigins: []string{"*"},
		Players: PlayersConfig{
			Source:           SourceFile,
			File:             "players.xlsx",
			SpreadsheetRange: "Players!A1:Z1000",
			CredentialsFile:  "credentials.json",
		},
		Database: dbconfig.Default(),
		NATS: NATSConfig{
			StreamName:    "AUCTION_EVENTS",
			SubjectPrefix: "auction.events",
		},
	}
}

// Load builds the config from defaults, then the optional YAML file at path,
// then environment variables
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields with any environment variables that are set
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("HOST", &c.Host)
	str("PORT", &c.Port)
	str("LOG_LEVEL", &c.LogLevel)
	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok && v != "" {
		c.CORSAllowedOrigins = splitList(v)
	}

	str("PLAYERS_SOURCE", &c.Players.Source)
	str("PLAYERS_FILE", &c.Players.File)
	if v, ok := lookup("PLAYERS_LOAD_TIMEOUT"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Players.LoadTimeout = d
		}
	}
	str("SPREADSHEET_ID", &c.Players.SpreadsheetID)
	str("SPREADSHEET_RANGE", &c.Players.SpreadsheetRange)
	str("GOOGLE_CREDENTIALS_FILE", &c.Players.CredentialsFile)

	c.Database.ApplyEnv(lookup)

	str("NATS_URL", &c.NATS.URL)
	str("NATS_STREAM", &c.NATS.StreamName)
	str("NATS_SUBJECT_PREFIX", &c.NATS.SubjectPrefix)
}

func (c Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("%w: port %q", ErrInvalidConfig, c.Port)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.LogLevel)
	}

	switch c.Players.Source {
	case SourceFile:
		if c.Players.File == "" {
			return fmt.Errorf("%w: players file is required", ErrInvalidConfig)
		}
	case SourceSheets:
		if c.Players.SpreadsheetID == "" {
			return fmt.Errorf("%w: SPREADSHEET_ID is required for the sheets source", ErrInvalidConfig)
		}
	case SourcePostgres:
	default:
		return fmt.Errorf("%w: unknown players source %q", ErrInvalidConfig, c.Players.Source)
	}
	return nil
}

// EffectiveLoadTimeout is the configured timeout, or the per-source default
func (p PlayersConfig) EffectiveLoadTimeout() time.Duration {
	if p.LoadTimeout > 0 {
		return p.LoadTimeout
	}
	if p.Source == SourceSheets || p.Source == SourcePostgres {
		return DefaultRemoteLoadTimeout
	}
	return DefaultFileLoadTimeout
}

// Addr is the listen address
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Level returns the parsed log level, falling back to info
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return level
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
