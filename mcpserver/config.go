package mcpserver

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joeshaw/envdecode"

	"github.com/mcpkit/mcp-core-go/mcp"
)

// Config carries the environment-driven server settings. Only identity and
// logging are configured this way; capabilities and registrations are code.
type Config struct {
	Name         string `env:"MCP_SERVER_NAME,default=mcp-core"`
	Version      string `env:"MCP_SERVER_VERSION,default=0.0.0"`
	Title        string `env:"MCP_SERVER_TITLE"`
	Instructions string `env:"MCP_SERVER_INSTRUCTIONS"`
	LogLevel     string `env:"MCP_LOG_LEVEL,default=info"`
}

// ConfigFromEnv decodes Config from process environment variables.
func ConfigFromEnv() (Config, error) {
	var c Config
	if err := envdecode.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("decode server config: %w", err)
	}
	return c, nil
}

// SlogLevel maps the configured level name onto a slog.Level; unknown
// names fall back to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewServerFromConfig constructs a server whose identity comes from cfg.
// Additional options apply after the config-derived ones and may override
// them.
func NewServerFromConfig(cfg Config, opts ...ServerOption) *Server {
	base := []ServerOption{
		WithServerInfo(mcp.ImplementationInfo{Name: cfg.Name, Version: cfg.Version, Title: cfg.Title}),
	}
	if cfg.Instructions != "" {
		base = append(base, WithInstructions(cfg.Instructions))
	}
	return NewServer(append(base, opts...)...)
}
