package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the outliner's runtime settings.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
	Outline  OutlineConfig  `toml:"outline"`
	Undo     UndoConfig     `toml:"undo"`
	UI       UIConfig       `toml:"ui"`
	Keys     KeyConfig      `toml:"keys"`
	Server   ServerConfig   `toml:"server"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"` // debug | info | warn | error | fatal
	DevFile DevFileConfig `toml:"dev_file"`
}

// DevFileConfig controls the local log file written in dev mode.
type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type OutlineConfig struct {
	IndentWidth  int  `toml:"indent_width"`
	ShowIndent   bool `toml:"show_indent"`
	DividerWidth int  `toml:"divider_width"`
	RowHeight    int  `toml:"row_height"`
}

type UndoConfig struct {
	Limit int `toml:"limit"`
}

type UIConfig struct {
	ShowNotes     bool `toml:"show_notes"`
	ConfirmDelete bool `toml:"confirm_delete"`
}

// KeyConfig overrides single TUI bindings. Blank values keep the defaults.
type KeyConfig struct {
	Undo   string `toml:"undo"`
	Redo   string `toml:"redo"`
	Filter string `toml:"filter"`
	Copy   string `toml:"copy"`
	Save   string `toml:"save"`
}

// ServerConfig configures `outliner serve`.
type ServerConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

var logLevels = []string{"debug", "info", "warn", "error", "fatal"}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     "logs",
			},
		},
		Outline: OutlineConfig{
			IndentWidth:  2,
			ShowIndent:   true,
			DividerWidth: 1,
			RowHeight:    1,
		},
		Undo: UndoConfig{
			Limit: 100,
		},
		UI: UIConfig{
			ShowNotes:     true,
			ConfirmDelete: false,
		},
		Keys: KeyConfig{
			Undo:   "z",
			Redo:   "Z",
			Filter: "/",
			Copy:   "y",
			Save:   "ctrl+s",
		},
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if !slices.Contains(logLevels, level) {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	if c.Logging.DevFile.Enabled && strings.TrimSpace(c.Logging.DevFile.Dir) == "" {
		return errors.New("logging.dev_file.dir is required when enabled")
	}

	if c.Outline.IndentWidth < 0 {
		return fmt.Errorf("outline.indent_width must be >= 0, got %d", c.Outline.IndentWidth)
	}
	if c.Outline.DividerWidth < 0 {
		return fmt.Errorf("outline.divider_width must be >= 0, got %d", c.Outline.DividerWidth)
	}
	if c.Outline.RowHeight < 1 {
		return fmt.Errorf("outline.row_height must be >= 1, got %d", c.Outline.RowHeight)
	}
	if c.Undo.Limit < 0 {
		return fmt.Errorf("undo.limit must be >= 0, got %d", c.Undo.Limit)
	}

	api := "/" + strings.Trim(strings.TrimSpace(c.Server.APIEndpoint), "/")
	mcp := "/" + strings.Trim(strings.TrimSpace(c.Server.MCPEndpoint), "/")
	if api != "/" && api == mcp {
		return fmt.Errorf("server.mcp_endpoint must differ from server.api_endpoint, both %q", api)
	}

	seen := map[string]string{}
	for name, binding := range map[string]string{
		"undo":   c.Keys.Undo,
		"redo":   c.Keys.Redo,
		"filter": c.Keys.Filter,
		"copy":   c.Keys.Copy,
		"save":   c.Keys.Save,
	} {
		binding = strings.TrimSpace(binding)
		if binding == "" {
			continue
		}
		if other, ok := seen[binding]; ok {
			return fmt.Errorf("keys.%s duplicates keys.%s: %q", name, other, binding)
		}
		seen[binding] = name
	}
	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
