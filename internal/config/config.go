// Package config loads the user's settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/tandem/internal/constants"
	"github.com/julianstephens/tandem/internal/gate"
)

type Window struct {
	Opens  string `yaml:"opens"`
	Closes string `yaml:"closes,omitempty"`
}

type Progress struct {
	// Backend is one of db, file, or memory.
	Backend string `yaml:"backend"`
	// Dir is used by the file backend. Empty means <config dir>/progress.
	Dir string `yaml:"dir,omitempty"`
}

type Notifications struct {
	Enabled bool `yaml:"enabled"`
}

// Settings mirrors config.yaml.
type Settings struct {
	Timezone      string        `yaml:"timezone"`
	Planning      Window        `yaml:"planning"`
	Review        Window        `yaml:"review"`
	Progress      Progress      `yaml:"progress"`
	Notifications Notifications `yaml:"notifications"`
}

func Default() Settings {
	ws := gate.DefaultWindows()
	return Settings{
		Timezone:      constants.DefaultTimezone,
		Planning:      Window{Opens: ws.PlanningOpens.String()},
		Review:        Window{Opens: ws.ReviewOpens.String(), Closes: ws.ReviewCloses.String()},
		Progress:      Progress{Backend: constants.DefaultProgressBackend},
		Notifications: Notifications{Enabled: constants.DefaultNotificationsEnabled},
	}
}

// Path returns the settings file inside configDir.
func Path(configDir string) string {
	return filepath.Join(configDir, constants.DefaultSettingsFile)
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	return s, nil
}

// Save writes s to path, creating the directory if needed.
func Save(path string, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to serialize settings: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s Settings) Validate() error {
	if _, err := s.Location(); err != nil {
		return err
	}
	if _, err := s.Windows(); err != nil {
		return err
	}
	switch s.Progress.Backend {
	case constants.ProgressBackendDB, constants.ProgressBackendFile, constants.ProgressBackendMemory:
	default:
		return fmt.Errorf("invalid progress backend %q (expected db, file, or memory)", s.Progress.Backend)
	}
	return nil
}

// Location resolves the configured timezone. "Local" and "" mean the system zone.
func (s Settings) Location() (*time.Location, error) {
	if s.Timezone == "" || s.Timezone == constants.DefaultTimezone {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// Windows parses the configured gate windows.
func (s Settings) Windows() (gate.Windows, error) {
	var ws gate.Windows
	var err error
	if ws.PlanningOpens, err = gate.ParseWindow(s.Planning.Opens); err != nil {
		return ws, fmt.Errorf("planning.opens: %w", err)
	}
	if ws.ReviewOpens, err = gate.ParseWindow(s.Review.Opens); err != nil {
		return ws, fmt.Errorf("review.opens: %w", err)
	}
	if ws.ReviewCloses, err = gate.ParseWindow(s.Review.Closes); err != nil {
		return ws, fmt.Errorf("review.closes: %w", err)
	}
	if err := ws.Validate(); err != nil {
		return ws, err
	}
	return ws, nil
}

// ProgressDir returns the file backend directory.
func (s Settings) ProgressDir(configDir string) string {
	if s.Progress.Dir != "" {
		return ExpandHome(s.Progress.Dir)
	}
	return filepath.Join(configDir, constants.ProgressDirName)
}

// Keys lists the settable keys in a stable order.
func Keys() []string {
	keys := []string{
		constants.SettingTimezone,
		constants.SettingPlanningOpens,
		constants.SettingReviewOpens,
		constants.SettingReviewCloses,
		constants.SettingProgressBackend,
		constants.SettingProgressDir,
		constants.SettingNotificationsEnabled,
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value stored under a dotted key.
func (s Settings) Get(key string) (string, error) {
	switch key {
	case constants.SettingTimezone:
		return s.Timezone, nil
	case constants.SettingPlanningOpens:
		return s.Planning.Opens, nil
	case constants.SettingReviewOpens:
		return s.Review.Opens, nil
	case constants.SettingReviewCloses:
		return s.Review.Closes, nil
	case constants.SettingProgressBackend:
		return s.Progress.Backend, nil
	case constants.SettingProgressDir:
		return s.Progress.Dir, nil
	case constants.SettingNotificationsEnabled:
		return strconv.FormatBool(s.Notifications.Enabled), nil
	}
	return "", fmt.Errorf("unknown setting %q", key)
}

// Set updates a dotted key and validates the result.
func (s *Settings) Set(key, value string) error {
	next := *s
	value = strings.TrimSpace(value)
	switch key {
	case constants.SettingTimezone:
		next.Timezone = value
	case constants.SettingPlanningOpens:
		next.Planning.Opens = value
	case constants.SettingReviewOpens:
		next.Review.Opens = value
	case constants.SettingReviewCloses:
		next.Review.Closes = value
	case constants.SettingProgressBackend:
		next.Progress.Backend = strings.ToLower(value)
	case constants.SettingProgressDir:
		next.Progress.Dir = value
	case constants.SettingNotificationsEnabled:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
		next.Notifications.Enabled = b
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*s = next
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
