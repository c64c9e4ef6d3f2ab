// Package config loads the portal-rpcd daemon configuration.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"ethportal.io/api/primitives"
)

const (
	DefaultListen          = "127.0.0.1:8545"
	DefaultBackend         = "memory"
	DefaultMaxContentBytes = 16 << 20
)

// Config describes what the daemon serves and which overlay backend answers its calls.
//
// Callers still need to link the desired backends via blank imports.
//
// Example:
//
//	{
//	  "listen": "127.0.0.1:8545",
//	  "networks": ["history", "state"],
//	  "overlay": {"backend": "grpc", "options": {"target": "127.0.0.1:9009"}},
//	  "log_level": "debug"
//	}
//
// Overlay options are backend-specific and mirror the backend's CLI flags without the
// "<backend>-" prefix.
type Config struct {
	Listen   string        `json:"listen,omitempty"`
	Networks []string      `json:"networks,omitempty"`
	Overlay  OverlayConfig `json:"overlay"`
	// OverlayListen, when set, also exposes the opened overlay over gRPC.
	OverlayListen   string `json:"overlay_listen,omitempty"`
	LogLevel        string `json:"log_level,omitempty"`
	MaxContentBytes int    `json:"max_content_bytes,omitempty"`
}

type OverlayConfig struct {
	Backend string            `json:"backend"`
	Options map[string]string `json:"options,omitempty"`
}

// Default serves both networks from the in-process overlay.
func Default() Config {
	return Config{
		Listen:          DefaultListen,
		Networks:        []string{"history", "state"},
		Overlay:         OverlayConfig{Backend: DefaultBackend},
		LogLevel:        "info",
		MaxContentBytes: DefaultMaxContentBytes,
	}
}

// LoadFile reads a JSON config on top of Default. Unknown keys are rejected.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, errors.New("config: empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Listen) == "" {
		return errors.New("config: listen address is required")
	}
	if _, err := c.Protocols(); err != nil {
		return err
	}
	if c.Overlay.Backend == "" {
		return errors.New("config: overlay backend is required")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.MaxContentBytes < 0 {
		return fmt.Errorf("config: invalid max_content_bytes %d", c.MaxContentBytes)
	}
	if c.OverlayListen != "" && c.OverlayListen == c.Listen {
		return fmt.Errorf("config: overlay_listen and listen are both %s", c.Listen)
	}
	return nil
}

// Protocols resolves Networks in order. At least one network is required and none may repeat.
func (c Config) Protocols() ([]primitives.ProtocolID, error) {
	if len(c.Networks) == 0 {
		return nil, errors.New("config: at least one network is required")
	}
	out := make([]primitives.ProtocolID, 0, len(c.Networks))
	seen := make(map[primitives.ProtocolID]struct{}, len(c.Networks))
	for _, name := range c.Networks {
		p, err := primitives.ParseNetwork(name)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if _, ok := seen[p]; ok {
			return nil, fmt.Errorf("config: duplicate network %q", name)
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error", optionally with an offset
// such as "info+2"). Empty means info.
func (c Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: invalid log_level %q", c.LogLevel)
	}
	return l, nil
}
