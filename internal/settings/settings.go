// Package settings keeps the application settings in settings.json inside
// the data directory. A missing or unreadable file yields the defaults.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cast"

	"github.com/AndrewLang/matrix-codex-flow/pkg/types"
)

// FileName is the settings file inside the data directory.
const FileName = "settings.json"

// Well-known keys.
const (
	KeyAgentProvider       = "agent.provider"
	KeyCodexAPIKey         = "agent.codex.apiKey"
	KeyPromptTemplate      = "prompt.template"
	KeyGenerateVibeflowDir = "project.generateVibeflowFolder"
)

const defaultPromptTemplate = "You are Codex working inside VibeFlow.\n" +
	"Follow project context and rules, keep outputs concise, and produce actionable steps."

// Set errors.
var (
	ErrUnknownKey   = errors.New("unknown setting key")
	ErrInvalidValue = errors.New("invalid setting value")
)

// Defaults returns a fresh copy of the default settings.
func Defaults() []types.SettingModel {
	return []types.SettingModel{
		{ID: "setting-agent-provider", Key: KeyAgentProvider, Value: "codex", ValueType: types.SettingString},
		{ID: "setting-agent-codex-api-key", Key: KeyCodexAPIKey, Value: "", ValueType: types.SettingString},
		{ID: "setting-prompt-template", Key: KeyPromptTemplate, Value: defaultPromptTemplate, ValueType: types.SettingString},
		{ID: "setting-generate-folder", Key: KeyGenerateVibeflowDir, Value: true, ValueType: types.SettingBoolean},
	}
}

// Settings is the in-memory copy of settings.json. It is safe for
// concurrent use.
type Settings struct {
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	items []types.SettingModel
}

// Load reads settings.json from dataDir. It never fails: when the file is
// missing or does not decode, the defaults are used.
func Load(dataDir string, logger *slog.Logger) *Settings {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Settings{
		path:   filepath.Join(dataDir, FileName),
		logger: logger.With("component", "settings"),
	}
	s.items = s.read()
	return s
}

func (s *Settings) read() []types.SettingModel {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("reading settings, using defaults", "path", s.path, "error", err)
		}
		return Defaults()
	}
	var items []types.SettingModel
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Warn("decoding settings, using defaults", "path", s.path, "error", err)
		return Defaults()
	}
	return items
}

// Path returns the location of settings.json.
func (s *Settings) Path() string {
	return s.path
}

// All returns a copy of every setting in file order.
func (s *Settings) All() []types.SettingModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.SettingModel, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the setting with the given key.
func (s *Settings) Get(key string) (types.SettingModel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.Key == key {
			return item, true
		}
	}
	return types.SettingModel{}, false
}

// Set converts value to the setting's declared type, stores it and writes
// the file.
func (s *Settings) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, item := range s.items {
		if item.Key == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("set %q: %w", key, ErrUnknownKey)
	}

	converted, err := Convert(s.items[idx].ValueType, value)
	if err != nil {
		return fmt.Errorf("set %q: %w: %v", key, ErrInvalidValue, err)
	}
	s.items[idx].Value = converted
	return s.writeLocked()
}

// Replace swaps the whole settings list and writes the file.
func (s *Settings) Replace(items []types.SettingModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make([]types.SettingModel, len(items))
	copy(s.items, items)
	return s.writeLocked()
}

// Save writes the current settings to disk.
func (s *Settings) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked()
}

func (s *Settings) writeLocked() error {
	data, err := json.MarshalIndent(s.items, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

// Convert coerces value, which may be a string typed on a command line, to
// the Go type backing t.
func Convert(t types.SettingValueType, value any) (any, error) {
	switch t {
	case types.SettingBoolean:
		return cast.ToBoolE(value)
	case types.SettingNumber:
		return cast.ToFloat64E(value)
	default:
		return cast.ToStringE(value)
	}
}
