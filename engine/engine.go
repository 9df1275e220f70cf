// Package engine is the reconciliation core: it classifies the central
// instance's folders per viewing user and runs the multi-step protocols that
// add or remove a sharing relationship across the central and the peer
// Syncthing configurations. Every operation re-fetches fresh state before
// computing a mutation; nothing is cached across calls.
package engine

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/pdrolopes/syncmanager_TUI/settings"
	"github.com/pdrolopes/syncmanager_TUI/syncthing"
)

type Engine struct {
	Central *syncthing.Client

	// ThisID is the central instance's own device id, discovered from
	// /rest/system/status on the first refresh.
	ThisID string

	logger *log.Logger
}

func New(central *syncthing.Client, thisID string, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{Central: central, ThisID: thisID, logger: logger}
}

// ------------------------------- views ---------------------------------

type FolderView struct {
	ID      string
	Label   string
	Path    string
	Private bool
}

func (f FolderView) DisplayText() string {
	tag := ""
	if f.Private {
		tag = " [PRIVATE]"
	}
	return fmt.Sprintf("%s%s (%s) → %s", f.Label, tag, f.ID, f.Path)
}

type DeviceView struct {
	DeviceID      string
	Name          string
	Owner         string // name of the user this device belongs to, if any
	ThisDevice    bool
	Connected     bool
	InBytesTotal  int64
	OutBytesTotal int64
}

type Drift struct {
	FolderID  string
	Label     string
	OnCentral bool
	OnPeer    bool
}

func (d Drift) Describe() string {
	if d.OnCentral && !d.OnPeer {
		return fmt.Sprintf("folder %q (%s) is shared on the central instance but missing from the peer", d.Label, d.FolderID)
	}
	return fmt.Sprintf("folder %q (%s) exists on the peer but the central instance no longer shares it", d.Label, d.FolderID)
}

type RefreshView struct {
	ThisID       string
	Uptime       int64
	Devices      []DeviceView
	Mine         []FolderView
	Discoverable []FolderView
	Drift        []Drift
}

// Refresh rebuilds the whole view from a fresh fetch: config, status and
// connections from the central instance, classified for the active user.
// Peer configs are never part of classification; they are only consulted to
// flag drift, and a sleeping peer must not fail a refresh.
func (e *Engine) Refresh(s settings.Settings, active settings.User) (RefreshView, error) {
	if active.DeviceID == "" {
		return RefreshView{}, &ConfigMissingError{Field: active.Name + "'s device id"}
	}

	config, err := e.Central.Config()
	if err != nil {
		return RefreshView{}, err
	}
	status, err := e.Central.Status()
	if err != nil {
		return RefreshView{}, err
	}
	connections, err := e.Central.Connections()
	if err != nil {
		return RefreshView{}, err
	}

	if e.ThisID == "" {
		e.ThisID = status.MyID
	}
	if e.ThisID == "" {
		return RefreshView{}, &ConfigMissingError{Field: "this instance's device id"}
	}

	mine, discoverable := Classify(config.Folders, e.ThisID, active.DeviceID, s.OtherDeviceIDs(active.Name))

	view := RefreshView{
		ThisID:       e.ThisID,
		Uptime:       status.Uptime,
		Mine:         lo.Map(mine, func(f syncthing.FolderConfig, _ int) FolderView { return folderView(f) }),
		Discoverable: lo.Map(discoverable, func(f syncthing.FolderConfig, _ int) FolderView { return folderView(f) }),
		Devices:      deviceViews(config, connections, e.ThisID, s.Users),
	}

	if active.HasPeerAPI() {
		drift, err := e.DetectDrift(config, active)
		if err != nil {
			e.logger.Warnf("drift check against %s's device skipped: %v", active.Name, err)
		} else {
			view.Drift = drift
		}
	}

	return view, nil
}

func folderView(f syncthing.FolderConfig) FolderView {
	label := f.Label
	if label == "" {
		label = f.ID
	}
	return FolderView{ID: f.ID, Label: label, Path: f.Path, Private: f.Private}
}

func deviceViews(
	config syncthing.Config,
	connections syncthing.SystemConnections,
	thisID string,
	users []settings.User,
) []DeviceView {
	views := make([]DeviceView, 0, len(config.Devices)+1)
	views = append(views, DeviceView{
		DeviceID:   thisID,
		Name:       "Server",
		ThisDevice: true,
		Connected:  true,
	})

	for _, device := range config.Devices {
		if device.DeviceID == thisID {
			continue
		}

		owner := ""
		for _, u := range users {
			if u.DeviceID == device.DeviceID {
				owner = u.Name
				break
			}
		}

		conn := connections.Connections[device.DeviceID]
		views = append(views, DeviceView{
			DeviceID:      device.DeviceID,
			Name:          device.Name,
			Owner:         owner,
			Connected:     conn.Connected,
			InBytesTotal:  conn.InBytesTotal,
			OutBytesTotal: conn.OutBytesTotal,
		})
	}

	return views
}

// ------------------------- sync / unsync protocols ----------------------

type SyncResult struct {
	FolderID string
	Label    string
	Err      error
}

// SyncFolder adds a sharing relationship: the user's device id joins the
// folder's device list on the central instance, and the folder is pushed to
// the user's own Syncthing. Both halves are idempotent; running it twice
// yields one membership entry and one peer folder, not two.
func (e *Engine) SyncFolder(folderID string, user settings.User) error {
	if user.DeviceID == "" {
		return &ConfigMissingError{Field: user.Name + "'s device id"}
	}
	if e.ThisID == "" {
		return &ConfigMissingError{Field: "this instance's device id"}
	}

	config, err := e.Central.Config()
	if err != nil {
		return err
	}

	folder, idx, found := lo.FindIndexOf(config.Folders, func(f syncthing.FolderConfig) bool {
		return f.ID == folderID
	})
	if !found {
		return &NotFoundError{Kind: "folder", ID: folderID}
	}

	// Private folders are restricted to their owner, checked before any
	// mutation happens anywhere.
	if folder.Private && OwnerID(folder, e.ThisID) != user.DeviceID {
		return &AccessDeniedError{FolderID: folder.ID, Label: folderView(folder).Label}
	}

	if !isMember(folder, user.DeviceID) {
		folder.Devices = append(folder.Devices, syncthing.FolderDevice{DeviceID: user.DeviceID})
		config.Folders[idx] = folder
		if err := e.Central.PostConfig(config); err != nil {
			return err
		}
		e.logger.Infof("added %s to folder %s on central", user.Name, folder.ID)
	}

	if err := e.pushFolderToUser(e.folderForUser(folder, user.DeviceID), user); err != nil {
		return &PartialError{User: user.Name, Err: err}
	}
	return nil
}

// SyncFolders is the batch variant: strictly sequential, one folder's
// failure doesn't stop the rest, results are aggregated for a single
// summary.
func (e *Engine) SyncFolders(folderIDs []string, labels map[string]string, user settings.User) []SyncResult {
	results := make([]SyncResult, 0, len(folderIDs))
	for _, id := range folderIDs {
		results = append(results, SyncResult{
			FolderID: id,
			Label:    labels[id],
			Err:      e.SyncFolder(id, user),
		})
	}
	return results
}

// UnsyncFolder removes the sharing declaration only; no files are deleted.
// The user's device id is filtered out of the central folder's device list,
// then the folder is removed from the peer's own config when its API
// details are known.
func (e *Engine) UnsyncFolder(folderID string, user settings.User) error {
	if user.DeviceID == "" {
		return &ConfigMissingError{Field: user.Name + "'s device id"}
	}

	config, err := e.Central.Config()
	if err != nil {
		return err
	}

	found := false
	for i, folder := range config.Folders {
		if folder.ID != folderID {
			continue
		}
		found = true
		config.Folders[i].Devices = lo.Filter(folder.Devices, func(d syncthing.FolderDevice, _ int) bool {
			return d.DeviceID != user.DeviceID
		})
		break
	}
	if !found {
		return &NotFoundError{Kind: "folder", ID: folderID}
	}

	if err := e.Central.PostConfig(config); err != nil {
		// central write failed, don't touch the peer
		return err
	}
	e.logger.Infof("removed %s from folder %s on central", user.Name, folderID)

	if !user.HasPeerAPI() {
		return &PartialError{User: user.Name, Err: ErrPeerNotConfigured}
	}

	peer, err := e.peer(user)
	if err != nil {
		return &PartialError{User: user.Name, Err: err}
	}
	peerConfig, err := peer.Config()
	if err != nil {
		return &PartialError{User: user.Name, Err: err}
	}
	peerConfig.Folders = lo.Filter(peerConfig.Folders, func(f syncthing.FolderConfig, _ int) bool {
		return f.ID != folderID
	})
	if err := peer.PostConfig(peerConfig); err != nil {
		return &PartialError{User: user.Name, Err: err}
	}

	return nil
}

// ---------------------------- registration ------------------------------

// AddDevice registers a device on the central instance with default
// addressing and compression.
func (e *Engine) AddDevice(deviceID, name string) error {
	if deviceID == "" || name == "" {
		return fmt.Errorf("device ID and name are required")
	}

	config, err := e.Central.Config()
	if err != nil {
		return err
	}

	exists := lo.SomeBy(config.Devices, func(d syncthing.DeviceConfig) bool {
		return d.DeviceID == deviceID
	})
	if exists {
		return &AlreadyExistsError{Kind: "device", Value: deviceID}
	}

	config.Devices = append(config.Devices, syncthing.DeviceConfig{
		DeviceID:    deviceID,
		Name:        name,
		Addresses:   []string{"dynamic"},
		Compression: "metadata",
	})

	if err := e.Central.PostConfig(config); err != nil {
		return err
	}
	e.logger.Infof("registered device %s (%s)", name, deviceID)
	return nil
}

// AddFolder creates a two-party folder shared between the central instance
// and the owning user, then pushes it to the owner's own Syncthing. The id
// is random; both the id and the path are checked against the fetched
// config before anything is written.
func (e *Engine) AddFolder(label, path string, owner settings.User, private bool) (syncthing.FolderConfig, error) {
	if label == "" || path == "" {
		return syncthing.FolderConfig{}, fmt.Errorf("folder label and path are required")
	}
	if e.ThisID == "" {
		return syncthing.FolderConfig{}, &ConfigMissingError{Field: "this instance's device id"}
	}
	if owner.DeviceID == "" {
		return syncthing.FolderConfig{}, &ConfigMissingError{Field: owner.Name + "'s device id"}
	}

	config, err := e.Central.Config()
	if err != nil {
		return syncthing.FolderConfig{}, err
	}

	folderID := newFolderID()
	for _, f := range config.Folders {
		if f.ID == folderID {
			return syncthing.FolderConfig{}, &AlreadyExistsError{Kind: "folder id", Value: folderID}
		}
		if f.Path == path {
			return syncthing.FolderConfig{}, &AlreadyExistsError{Kind: "folder path", Value: path}
		}
	}

	folder := syncthing.FolderConfig{
		ID:               folderID,
		Label:            label,
		Path:             path,
		Type:             "sendreceive",
		RescanIntervalS:  60,
		FsWatcherEnabled: true,
		Private:          private,
		Devices: []syncthing.FolderDevice{
			{DeviceID: e.ThisID},
			{DeviceID: owner.DeviceID},
		},
	}

	config.Folders = append(config.Folders, folder)
	if err := e.Central.PostConfig(config); err != nil {
		return syncthing.FolderConfig{}, err
	}
	e.logger.Infof("created folder %s (%s) at %s", label, folderID, path)

	if err := e.pushFolderToUser(e.folderForUser(folder, owner.DeviceID), owner); err != nil {
		return folder, &PartialError{User: owner.Name, Err: err}
	}
	return folder, nil
}

func newFolderID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

// --------------------------- peer propagation ---------------------------

// folderForUser builds the folder document the peer gets. The device list is
// always exactly the two-party relationship [central, user], independent of
// how many parties the central folder lists, and the privacy flag is carried
// through unchanged.
func (e *Engine) folderForUser(folder syncthing.FolderConfig, userDeviceID string) syncthing.FolderConfig {
	label := folder.Label
	if label == "" {
		label = folder.ID
	}
	folderType := folder.Type
	if folderType == "" {
		folderType = "sendreceive"
	}
	rescan := folder.RescanIntervalS
	if rescan == 0 {
		rescan = 60
	}

	return syncthing.FolderConfig{
		ID:               folder.ID,
		Label:            label,
		Path:             folder.Path,
		Type:             folderType,
		RescanIntervalS:  rescan,
		FsWatcherEnabled: folder.FsWatcher(),
		Private:          folder.Private,
		Devices: []syncthing.FolderDevice{
			{DeviceID: e.ThisID},
			{DeviceID: userDeviceID},
		},
	}
}

// pushFolderToUser installs the folder on the user's own Syncthing: makes
// sure the central device is registered there, then appends the folder
// unless the peer already has it (idempotent no-op, never overwritten).
func (e *Engine) pushFolderToUser(folder syncthing.FolderConfig, user settings.User) error {
	peer, err := e.peer(user)
	if err != nil {
		return err
	}

	peerConfig, err := peer.Config()
	if err != nil {
		return err
	}

	hasCentral := lo.SomeBy(peerConfig.Devices, func(d syncthing.DeviceConfig) bool {
		return d.DeviceID == e.ThisID
	})
	if !hasCentral {
		peerConfig.Devices = append(peerConfig.Devices, syncthing.DeviceConfig{
			DeviceID:    e.ThisID,
			Name:        "CentralServer",
			Addresses:   []string{"dynamic"},
			Compression: "metadata",
		})
	}

	alreadyThere := lo.SomeBy(peerConfig.Folders, func(f syncthing.FolderConfig) bool {
		return f.ID == folder.ID
	})
	if alreadyThere {
		return nil
	}

	peerConfig.Folders = append(peerConfig.Folders, folder)
	if err := peer.PostConfig(peerConfig); err != nil {
		return err
	}
	e.logger.Infof("pushed folder %s to %s's device", folder.ID, user.Name)
	return nil
}

func (e *Engine) peer(user settings.User) (*syncthing.Client, error) {
	if !user.HasPeerAPI() {
		return nil, ErrPeerNotConfigured
	}
	return syncthing.NewClient(user.APIURL, user.APIKey)
}

// ----------------------------- drift check ------------------------------

// DetectDrift diffs the central sharing declarations for a user against
// what that user's own instance actually has. A partial failure can leave
// the two sides inconsistent; this makes the drift visible without trying
// to repair it.
func (e *Engine) DetectDrift(central syncthing.Config, user settings.User) ([]Drift, error) {
	peer, err := e.peer(user)
	if err != nil {
		return nil, err
	}
	peerConfig, err := peer.Config()
	if err != nil {
		return nil, err
	}

	peerFolders := make(map[string]syncthing.FolderConfig, len(peerConfig.Folders))
	for _, f := range peerConfig.Folders {
		peerFolders[f.ID] = f
	}

	var drift []Drift
	centralShared := make(map[string]struct{})
	for _, folder := range central.Folders {
		if !isMember(folder, e.ThisID) || !isMember(folder, user.DeviceID) {
			continue
		}
		centralShared[folder.ID] = struct{}{}
		if _, ok := peerFolders[folder.ID]; !ok {
			drift = append(drift, Drift{
				FolderID:  folder.ID,
				Label:     folderView(folder).Label,
				OnCentral: true,
			})
		}
	}
	for _, folder := range peerConfig.Folders {
		if !isMember(folder, e.ThisID) {
			continue
		}
		if _, ok := centralShared[folder.ID]; !ok {
			drift = append(drift, Drift{
				FolderID: folder.ID,
				Label:    folderView(folder).Label,
				OnPeer:   true,
			})
		}
	}

	return drift, nil
}
