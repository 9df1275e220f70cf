package app

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/pdrolopes/syncmanager_TUI/engine"
	"github.com/pdrolopes/syncmanager_TUI/settings"
	"github.com/pdrolopes/syncmanager_TUI/syncthing"
)

// ------------------------------- MSGS ---------------------------------

type RefreshedMsg struct {
	view engine.RefreshView
	err  error
}

type SyncEndedMsg struct {
	user    string
	results []engine.SyncResult
}

type UnsyncEndedMsg struct {
	user  string
	label string
	err   error
}

type DeviceAddedMsg struct {
	name string
	err  error
}

type FolderAddedMsg struct {
	user  string
	label string
	err   error
}

// FolderPathMissingMsg asks the user whether the folder path should be
// created on the server before retrying the add.
type FolderPathMissingMsg struct {
	label   string
	path    string
	private bool
}

type SettingsSavedMsg struct {
	settings settings.Settings
	engine   *engine.Engine
	err      error
}

// newEngine builds the central client and the reconciliation engine from
// the current settings.
func newEngine(s settings.Settings, logger *log.Logger) (*engine.Engine, error) {
	central, err := syncthing.NewClient(s.APIURL, s.APIKey)
	if err != nil {
		return nil, err
	}
	return engine.New(central, s.ThisDeviceID, logger), nil
}

func refreshCmd(e *engine.Engine, s settings.Settings, active settings.User) tea.Cmd {
	return func() tea.Msg {
		view, err := e.Refresh(s, active)
		return RefreshedMsg{view: view, err: err}
	}
}

func syncSelectedCmd(e *engine.Engine, user settings.User, folderIDs []string, labels map[string]string) tea.Cmd {
	return func() tea.Msg {
		return SyncEndedMsg{
			user:    user.Name,
			results: e.SyncFolders(folderIDs, labels, user),
		}
	}
}

func unsyncCmd(e *engine.Engine, user settings.User, folderID, label string) tea.Cmd {
	return func() tea.Msg {
		return UnsyncEndedMsg{
			user:  user.Name,
			label: label,
			err:   e.UnsyncFolder(folderID, user),
		}
	}
}

func addDeviceCmd(e *engine.Engine, deviceID, name string) tea.Cmd {
	return func() tea.Msg {
		return DeviceAddedMsg{name: name, err: e.AddDevice(deviceID, name)}
	}
}

// addFolderCmd creates the folder on the central instance and pushes it to
// the owner. When the path doesn't exist on the server yet the command
// bounces back a FolderPathMissingMsg instead; a second call with
// createPath set makes the directory first.
func addFolderCmd(e *engine.Engine, owner settings.User, label, path string, private, createPath bool) tea.Cmd {
	return func() tea.Msg {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if !createPath {
				return FolderPathMissingMsg{label: label, path: path, private: private}
			}
			if err := os.MkdirAll(path, 0o755); err != nil {
				return FolderAddedMsg{user: owner.Name, label: label, err: err}
			}
		}

		_, err := e.AddFolder(label, path, owner, private)
		return FolderAddedMsg{user: owner.Name, label: label, err: err}
	}
}

func saveSettingsCmd(path string, updated settings.Settings, logger *log.Logger) tea.Cmd {
	return func() tea.Msg {
		e, err := newEngine(updated, logger)
		if err != nil {
			return SettingsSavedMsg{settings: updated, err: err}
		}

		// Discover this instance's own device id while we're at it.
		if status, err := e.Central.Status(); err == nil && status.MyID != "" {
			updated.ThisDeviceID = status.MyID
			e.ThisID = status.MyID
		}

		if err := settings.Save(path, updated); err != nil {
			return SettingsSavedMsg{settings: updated, engine: e, err: err}
		}
		return SettingsSavedMsg{settings: updated, engine: e}
	}
}
