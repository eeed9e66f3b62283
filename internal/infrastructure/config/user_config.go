package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// UserConfig holds CLI preferences stored in ~/.gatherbot/preferences.json
type UserConfig struct {
	// Materials file used by "run" when --materials is omitted
	DefaultMaterials string `json:"default_materials,omitempty"`

	// Buffer used by "run" when --buffer is omitted
	DefaultBuffer *int `json:"default_buffer,omitempty"`
}

// UserConfigHandler loads and saves user preferences
type UserConfigHandler struct {
	configPath string
}

// NewUserConfigHandler creates a handler rooted at the user's home directory
func NewUserConfigHandler() (*UserConfigHandler, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return NewUserConfigHandlerAt(filepath.Join(homeDir, ".gatherbot", "preferences.json")), nil
}

// NewUserConfigHandlerAt creates a handler for an explicit file path
func NewUserConfigHandlerAt(path string) *UserConfigHandler {
	return &UserConfigHandler{configPath: path}
}

// Load reads preferences; a missing file yields empty preferences
func (h *UserConfigHandler) Load() (*UserConfig, error) {
	data, err := os.ReadFile(h.configPath)
	if os.IsNotExist(err) {
		return &UserConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user config: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config: %w", err)
	}
	return &cfg, nil
}

// Save writes preferences, creating the directory if needed
func (h *UserConfigHandler) Save(cfg *UserConfig) error {
	if err := os.MkdirAll(filepath.Dir(h.configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}
	if err := os.WriteFile(h.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write user config: %w", err)
	}
	return nil
}

// SetDefaultMaterials remembers a materials file
func (h *UserConfigHandler) SetDefaultMaterials(path string) error {
	cfg, err := h.Load()
	if err != nil {
		return err
	}
	cfg.DefaultMaterials = path
	return h.Save(cfg)
}

// SetDefaultBuffer remembers a buffer
func (h *UserConfigHandler) SetDefaultBuffer(buffer int) error {
	cfg, err := h.Load()
	if err != nil {
		return err
	}
	cfg.DefaultBuffer = &buffer
	return h.Save(cfg)
}

// Clear removes all preferences
func (h *UserConfigHandler) Clear() error {
	return h.Save(&UserConfig{})
}

// GetConfigPath returns the path to the preferences file
func (h *UserConfigHandler) GetConfigPath() string {
	return h.configPath
}
