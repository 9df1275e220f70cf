// Package settings persists the local settings document: where the central
// Syncthing instance lives, and the device id + API endpoint of every named
// user this tool manages shares for. Users are a list, not a map, so the
// order they were configured in is the order the UI shows them in.
package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDir  = "data"
	DefaultFile = "sync_config.yaml"
)

type User struct {
	Name     string `yaml:"name"`
	DeviceID string `yaml:"device_id"`
	APIURL   string `yaml:"api_url"`
	APIKey   string `yaml:"api_key"`
}

// HasPeerAPI reports whether this user's own Syncthing endpoint is
// configured. Without it, peer propagation is skipped and the operation is
// reported as a partial success.
func (u User) HasPeerAPI() bool {
	return u.APIURL != "" && u.APIKey != ""
}

type Settings struct {
	APIURL       string `yaml:"api_url"`
	APIKey       string `yaml:"api_key"`
	ThisDeviceID string `yaml:"this_device_id"`
	Users        []User `yaml:"users"`
}

func DefaultPath() string {
	return filepath.Join(DefaultDir, DefaultFile)
}

// Default is the skeleton written on first run. The api_url is the instance
// root, paths like /rest/system/config get joined onto it.
func Default() Settings {
	return Settings{
		APIURL: "http://localhost:8384",
		Users: []User{
			{Name: "Bob"},
			{Name: "Leo"},
		},
	}
}

// Load reads the settings document, creating it with default values when it
// doesn't exist yet. The second return value reports whether a new file was
// written, so the UI can tell the user to go fill it in.
func Load(path string) (Settings, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		settings := Default()
		if err := Save(path, settings); err != nil {
			return settings, false, fmt.Errorf("settings file not found, and failed to create a default one: %w", err)
		}
		return settings, true, nil
	}
	if err != nil {
		return Settings{}, false, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, false, fmt.Errorf("failed to parse settings file: %w", err)
	}
	return settings, false, nil
}

func Save(path string, settings Settings) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create settings directory: %w", err)
		}
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

// OtherDeviceIDs collects the device ids of every configured user except
// the named one. Users without a device id yet are skipped.
func (s Settings) OtherDeviceIDs(name string) []string {
	ids := make([]string, 0, len(s.Users))
	for _, u := range s.Users {
		if u.Name != name && u.DeviceID != "" {
			ids = append(ids, u.DeviceID)
		}
	}
	return ids
}

// MissingDeviceIDs lists users that still have no device id configured.
func (s Settings) MissingDeviceIDs() []string {
	var names []string
	for _, u := range s.Users {
		if u.DeviceID == "" {
			names = append(names, u.Name)
		}
	}
	return names
}
