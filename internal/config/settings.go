package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/youhavemail/yhm/internal/locale"
)

// Settings holds all user-configurable application settings organized by category.
type Settings struct {
	General GeneralSettings `json:"general"`
	Server  ServerSettings  `json:"server"`
}

// GeneralSettings contains application behavior settings.
type GeneralSettings struct {
	Language string `json:"language"`
	Theme    int    `json:"theme"`
	LogLevel string `json:"log_level"`
}

const (
	ThemeAdaptive = 0
	ThemeLight    = 1
	ThemeDark     = 2
)

// ServerSettings configures the background daemon.
type ServerSettings struct {
	ListenAddr string `json:"listen_addr"`
}

// SettingMeta provides metadata for a single setting (for rendering).
type SettingMeta struct {
	Key         string // JSON key name
	Label       string // Human-readable label
	Description string
	Type        string // "string", "int"
}

// GetSettingsMetadata returns metadata for all settings organized by category.
func GetSettingsMetadata() map[string][]SettingMeta {
	return map[string][]SettingMeta{
		"General": {
			{Key: "language", Label: "Language", Description: "Language for labels (en, fr, nl).", Type: "string"},
			{Key: "theme", Label: "App Theme", Description: "UI Theme (0 System, 1 Light, 2 Dark).", Type: "int"},
			{Key: "log_level", Label: "Log Level", Description: "Debug log verbosity (debug, info, warn, error).", Type: "string"},
		},
		"Server": {
			{Key: "listen_addr", Label: "Listen Address", Description: "Address the daemon binds to. Port 0 picks the first free port from 1750.", Type: "string"},
		},
	}
}

// CategoryOrder returns the order of categories for display.
func CategoryOrder() []string {
	return []string{"General", "Server"}
}

// DefaultSettings returns a new Settings instance with sensible defaults.
func DefaultSettings() *Settings {
	return &Settings{
		General: GeneralSettings{
			Language: "en",
			Theme:    ThemeAdaptive,
			LogLevel: "info",
		},
		Server: ServerSettings{
			ListenAddr: "127.0.0.1:0",
		},
	}
}

// GetSettingsPath returns the path to the settings JSON file.
func GetSettingsPath() string {
	return filepath.Join(GetAppDir(), "settings.json")
}

// LoadSettings loads settings from disk. Returns defaults if file doesn't exist.
func LoadSettings() (*Settings, error) {
	data, err := os.ReadFile(GetSettingsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings() // missing fields keep their defaults
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	return settings, nil
}

// SaveSettings saves settings to disk atomically.
func SaveSettings(s *Settings) error {
	path := GetSettingsPath()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	// Atomic write: write to temp file, then rename
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tempPath, path)
}

// Values returns the current value of every setting keyed by its JSON key.
func (s *Settings) Values() map[string]any {
	return map[string]any{
		"language":    s.General.Language,
		"theme":       s.General.Theme,
		"log_level":   s.General.LogLevel,
		"listen_addr": s.Server.ListenAddr,
	}
}

// Set updates a single setting from its string form.
func (s *Settings) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "language":
		lang := strings.ToLower(value)
		// empty falls back to $LANG
		if lang != "" && !slices.Contains(locale.Languages(), lang) {
			return fmt.Errorf("unsupported language %q (use one of %s)", value, strings.Join(locale.Languages(), ", "))
		}
		s.General.Language = lang
	case "theme":
		v, err := strconv.Atoi(value)
		if err != nil || v < ThemeAdaptive || v > ThemeDark {
			return fmt.Errorf("invalid theme %q (use 0, 1 or 2)", value)
		}
		s.General.Theme = v
	case "log_level":
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "error":
			s.General.LogLevel = strings.ToLower(value)
		default:
			return fmt.Errorf("invalid log level %q", value)
		}
	case "listen_addr":
		s.Server.ListenAddr = value
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}
