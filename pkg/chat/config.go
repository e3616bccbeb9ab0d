package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"shogichat/pkg/shogi"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderUSI        = "usi"
)

type Config struct {
	Provider      string  `json:"provider"`
	Model         string  `json:"model"`
	Endpoint      string  `json:"endpoint"`
	APIKeyEnv     string  `json:"api_key_env"`
	Referer       string  `json:"referer"`
	Title         string  `json:"title"`
	TimeoutMillis int     `json:"timeout_millis"`
	MaxTokens     int     `json:"max_tokens"`
	Temperature   float64 `json:"temperature"`

	Engine string `json:"engine"`
	Millis int    `json:"millis"`

	Resolution        string `json:"resolution"`
	AllowOccupiedDrop bool   `json:"allow_occupied_drop"`
	StartSFEN         string `json:"start_sfen"`

	Record string `json:"record"`
	Listen string `json:"listen"`
}

func DefaultConfig() Config {
	return Config{
		Provider:      ProviderOpenRouter,
		Model:         "x-ai/grok-4.1-fast:free",
		Endpoint:      "https://openrouter.ai/api/v1/chat/completions",
		APIKeyEnv:     "OPENROUTER_API_KEY",
		Referer:       "https://shogi-chat.vercel.app",
		Title:         "Shogi Chat AI",
		TimeoutMillis: 30000,
		MaxTokens:     100,
		Temperature:   0.7,
		Millis:        1000,
		Resolution:    shogi.FirstMatch.String(),
		Listen:        ":8080",
	}
}

// FindConfigPath walks up from the working directory looking for config.json.
func FindConfigPath() (string, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", "", err
	}
	dir := cwd
	for {
		path := filepath.Join(dir, "config.json")
		if _, err := os.Stat(path); err == nil {
			return path, filepath.Dir(path), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", "", fmt.Errorf("config.json not found from %s", cwd)
}

// LoadConfig reads path over DefaultConfig, so a file only needs the keys it
// changes.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

// ResolveConfig loads the explicit path when given. Otherwise it searches for
// config.json and falls back to DefaultConfig when there is none. The second
// result is the directory relative paths in the config are resolved against.
func ResolveConfig(arg string) (Config, string, error) {
	if arg != "" {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return Config{}, "", err
		}
		cfg, err := LoadConfig(abs)
		return cfg, filepath.Dir(abs), err
	}
	path, dir, err := FindConfigPath()
	if err != nil {
		cwd, _ := os.Getwd()
		return DefaultConfig(), cwd, nil
	}
	cfg, err := LoadConfig(path)
	return cfg, dir, err
}

func (c Config) validate() error {
	switch c.Provider {
	case ProviderOpenRouter, ProviderUSI:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.Provider == ProviderUSI && c.Engine == "" {
		return errors.New("engine path is required for the usi provider")
	}
	if c.StartSFEN != "" {
		if _, err := shogi.ParseSFEN(c.StartSFEN); err != nil {
			return fmt.Errorf("start_sfen: %w", err)
		}
	}
	return nil
}

func (c Config) Rules() shogi.Rules {
	return shogi.Rules{
		Resolution:        shogi.ParseResolution(c.Resolution),
		AllowOccupiedDrop: c.AllowOccupiedDrop,
	}
}

// Timeout bounds one suggestion request.
func (c Config) Timeout() time.Duration {
	if c.TimeoutMillis <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

func (c Config) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

// EnginePath resolves a relative engine path against the config directory.
func (c Config) EnginePath(dir string) (string, error) {
	if c.Engine == "" {
		return "", errors.New("engine path is required")
	}
	if filepath.IsAbs(c.Engine) {
		return c.Engine, nil
	}
	return filepath.Join(dir, c.Engine), nil
}

// NewState returns the configured starting position.
func (c Config) NewState() (shogi.State, error) {
	if c.StartSFEN == "" {
		return shogi.NewGame(), nil
	}
	return shogi.ParseSFEN(c.StartSFEN)
}
