package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/pdrolopes/syncmanager_TUI/settings"
	"github.com/pdrolopes/syncmanager_TUI/syncthing"
)

const (
	centralID = "CENTRALDEV"
	bobID     = "BOBDEV"
	leoID     = "LEODEV"
)

// fakeInstance is an in-memory Syncthing REST endpoint. It serves and
// replaces a single config document and counts config writes.
type fakeInstance struct {
	server *httptest.Server
	myID   string
	apiKey string

	mu     sync.Mutex
	config []byte
	posts  int
}

func newFakeInstance(t *testing.T, myID, config string) *fakeInstance {
	t.Helper()
	f := &fakeInstance{myID: myID, apiKey: "test-key", config: []byte(config)}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeInstance) handle(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-API-Key") != f.apiKey {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":"Forbidden"}`)
		return
	}

	switch r.URL.Path {
	case "/rest/system/config":
		f.mu.Lock()
		defer f.mu.Unlock()
		if r.Method == http.MethodPost {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			f.config = body
			f.posts++
			return
		}
		w.Write(f.config)
	case "/rest/system/status":
		fmt.Fprintf(w, `{"myID":%q,"uptime":4242}`, f.myID)
	case "/rest/system/connections":
		fmt.Fprintf(w, `{"connections":{%q:{"connected":true,"inBytesTotal":1024,"outBytesTotal":2048}},"total":{}}`, bobID)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeInstance) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts
}

func (f *fakeInstance) currentConfig(t *testing.T) syncthing.Config {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	var config syncthing.Config
	if err := json.Unmarshal(f.config, &config); err != nil {
		t.Fatalf("stored config is not valid JSON: %v", err)
	}
	return config
}

func (f *fakeInstance) rawConfig(t *testing.T) map[string]json.RawMessage {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(f.config, &raw); err != nil {
		t.Fatalf("stored config is not valid JSON: %v", err)
	}
	return raw
}

func newTestEngine(t *testing.T, central *fakeInstance) *Engine {
	t.Helper()
	client, err := syncthing.NewClient(central.server.URL, central.apiKey)
	if err != nil {
		t.Fatal(err)
	}
	return New(client, centralID, log.New(io.Discard))
}

func peerUser(name, deviceID string, peer *fakeInstance) settings.User {
	return settings.User{Name: name, DeviceID: deviceID, APIURL: peer.server.URL, APIKey: peer.apiKey}
}

const centralConfig = `{
	"version": 37,
	"gui": {"enabled": true, "theme": "dark"},
	"options": {"urAccepted": -1},
	"devices": [
		{"deviceID": "CENTRALDEV", "name": "Server", "addresses": ["dynamic"], "compression": "metadata", "certName": "syncthing"},
		{"deviceID": "BOBDEV", "name": "bob-laptop", "addresses": ["dynamic"]},
		{"deviceID": "LEODEV", "name": "leo-desktop", "addresses": ["dynamic"]}
	],
	"folders": [
		{"id": "abc123", "label": "Leo Share", "path": "/srv/sync/leo-share", "type": "sendreceive",
		 "rescanIntervalS": 3600, "order": "random",
		 "devices": [{"deviceID": "CENTRALDEV"}, {"deviceID": "LEODEV"}]},
		{"id": "secret12", "label": "Leo Private", "path": "/srv/sync/leo-private", "private": true,
		 "devices": [{"deviceID": "CENTRALDEV"}, {"deviceID": "LEODEV"}]}
	]
}`

const emptyPeerConfig = `{
	"version": 37,
	"devices": [{"deviceID": "BOBDEV", "name": "bob-laptop"}],
	"folders": []
}`

func findFolder(t *testing.T, config syncthing.Config, id string) syncthing.FolderConfig {
	t.Helper()
	for _, f := range config.Folders {
		if f.ID == id {
			return f
		}
	}
	t.Fatalf("folder %s not in config", id)
	return syncthing.FolderConfig{}
}

func deviceIDs(folder syncthing.FolderConfig) []string {
	ids := make([]string, 0, len(folder.Devices))
	for _, d := range folder.Devices {
		ids = append(ids, d.DeviceID)
	}
	return ids
}

func TestSyncFolderAddsMembershipAndPushesToPeer(t *testing.T) {
	central := newFakeInstance(t, centralID, centralConfig)
	bobPeer := newFakeInstance(t, bobID, emptyPeerConfig)
	e := newTestEngine(t, central)
	bob := peerUser("Bob", bobID, bobPeer)

	if err := e.SyncFolder("abc123", bob); err != nil {
		t.Fatalf("SyncFolder: %v", err)
	}

	folder := findFolder(t, central.currentConfig(t), "abc123")
	got := deviceIDs(folder)
	want := []string{centralID, leoID, bobID}
	if len(got) != len(want) {
		t.Fatalf("central folder devices = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("central folder devices = %v, want %v", got, want)
		}
	}

	// The peer gets the two-party document, not the central's full list.
	peerFolder := findFolder(t, bobPeer.currentConfig(t), "abc123")
	if got := deviceIDs(peerFolder); len(got) != 2 || got[0] != centralID || got[1] != bobID {
		t.Fatalf("peer folder devices = %v, want [%s %s]", got, centralID, bobID)
	}
	if peerFolder.Label != "Leo Share" || peerFolder.Path != "/srv/sync/leo-share" {
		t.Fatalf("peer folder = %+v", peerFolder)
	}
	if peerFolder.RescanIntervalS != 3600 {
		t.Fatalf("peer rescanIntervalS = %d, want 3600", peerFolder.RescanIntervalS)
	}

	// The central device must be registered on the peer.
	var hasCentral bool
	for _, d := range bobPeer.currentConfig(t).Devices {
		if d.DeviceID == centralID {
			hasCentral = true
			if d.Name != "CentralServer" {
				t.Fatalf("central registered on peer as %q", d.Name)
			}
		}
	}
	if !hasCentral {
		t.Fatal("central device not registered on peer")
	}
}

func TestSyncFolderIsIdempotent(t *testing.T) {
	central := newFakeInstance(t, centralID, centralConfig)
	bobPeer := newFakeInstance(t, bobID, emptyPeerConfig)
	e := newTestEngine(t, central)
	bob := peerUser("Bob", bobID, bobPeer)

	if err := e.SyncFolder("abc123", bob); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if err := e.SyncFolder("abc123", bob); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	if got := central.postCount(); got != 1 {
		t.Fatalf("central config posted %d times, want 1", got)
	}
	if got := bobPeer.postCount(); got != 1 {
		t.Fatalf("peer config posted %d times, want 1", got)
	}

	folder := findFolder(t, central.currentConfig(t), "abc123")
	count := 0
	for _, d := range folder.Devices {
		if d.DeviceID == bobID {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("bob appears %d times in the device list", count)
	}
}

func TestSyncFolderPreservesUnknownConfigKeys(t *testing.T) {
	central := newFakeInstance(t, centralID, centralConfig)
	bobPeer := newFakeInstance(t, bobID, emptyPeerConfig)
	e := newTestEngine(t, central)

	if err := e.SyncFolder("abc123", peerUser("Bob", bobID, bobPeer)); err != nil {
		t.Fatalf("SyncFolder: %v", err)
	}

	raw := central.rawConfig(t)
	for _, key := range []string{"gui", "options", "version"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("posted config lost top-level key %q", key)
		}
	}

	var folders []map[string]json.RawMessage
	if err := json.Unmarshal(raw["folders"], &folders); err != nil {
		t.Fatal(err)
	}
	if _, ok := folders[0]["order"]; !ok {
		t.Error("posted folder lost unknown key \"order\"")
	}
}

func TestSyncFolderWatcherDefaultOnPeer(t *testing.T) {
	// Syncthing treats a missing fsWatcherEnabled as enabled; only an
	// explicit false in the central document may disable it on the peer.
	centralDoc := `{
		"devices": [{"deviceID": "CENTRALDEV"}, {"deviceID": "BOBDEV"}, {"deviceID": "LEODEV"}],
		"folders": [
			{"id": "watch1", "label": "Default Watch", "path": "/srv/sync/w1",
			 "devices": [{"deviceID": "CENTRALDEV"}, {"deviceID": "LEODEV"}]},
			{"id": "watch2", "label": "No Watch", "path": "/srv/sync/w2", "fsWatcherEnabled": false,
			 "devices": [{"deviceID": "CENTRALDEV"}, {"deviceID": "LEODEV"}]}
		]
	}`
	central := newFakeInstance(t, centralID, centralDoc)
	bobPeer := newFakeInstance(t, bobID, emptyPeerConfig)
	e := newTestEngine(t, central)
	bob := peerUser("Bob", bobID, bobPeer)

	if err := e.SyncFolder("watch1", bob); err != nil {
		t.Fatalf("sync watch1: %v", err)
	}
	if err := e.SyncFolder("watch2", bob); err != nil {
		t.Fatalf("sync watch2: %v", err)
	}

	peerConfig := bobPeer.currentConfig(t)
	if f := findFolder(t, peerConfig, "watch1"); !f.FsWatcherEnabled {
		t.Error("missing fsWatcherEnabled pushed to the peer as disabled")
	}
	if f := findFolder(t, peerConfig, "watch2"); f.FsWatcherEnabled {
		t.Error("explicit fsWatcherEnabled=false not carried to the peer")
	}
}

func TestSyncFolderPrivateDeniedForNonOwner(t *testing.T) {
	central := newFakeInstance(t, centralID, centralConfig)
	bobPeer := newFakeInstance(t, bobID, emptyPeerConfig)
	e := newTestEngine(t, central)

	err := e.SyncFolder("secret12", peerUser("Bob", bobID, bobPeer))
	var denied *AccessDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("err = %v, want AccessDeniedError", err)
	}

	// Denied before anything was written anywhere.
	if central.postCount() != 0 || bobPeer.postCount() != 0 {
		t.Fatalf("config written despite denial: central=%d peer=%d", central.postCount(), bobPeer.postCount())
	}
}

func TestSyncFolderPrivateAllowedForOwner(t *testing.T) {
	central := newFakeInstance(t, centralID, centralConfig)
	leoPeer := newFakeInstance(t, leoID, `{"devices":[{"deviceID":"LEODEV","name":"leo-desktop"}],"folders":[]}`)
	e := newTestEngine(t, central)

	if err := e.SyncFolder("secret12", peerUser("Leo", leoID, leoPeer)); err != nil {
		t.Fatalf("owner sync of private folder: %v", err)
	}
	peerFolder := findFolder(t, leoPeer.currentConfig(t), "secret12")
	if !peerFolder.Private {
		t.Error("privacy flag not carried to the peer document")
	}
}

func TestSyncFolderUnknownFolder(t *testing.T) {
	central := newFakeInstance(t, centralID, centralConfig)
	e := newTestEngine(t, central)

	err := e.SyncFolder("nope", settings.User{Name: "Bob", DeviceID: bobID})
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestSyncFolderPartialWhenPeerUnreachable(t *testing.T) {
	central := newFakeInstance(t, centralID, centralConfig)
	e := newTestEngine(t, central)

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	err := e.SyncFolder("abc123", settings.User{Name: "Bob", DeviceID: bobID, APIURL: deadURL, APIKey: "k"})
	var partial *PartialError
	if !errors.As(err, &partial) {
		t.Fatalf("err = %v, want PartialError", err)
	}
	if partial.User != "Bob" {
		t.Errorf("partial.User = %q", partial.User)
	}

	// The central side committed; no rollback.
	folder := findFolder(t, central.currentConfig(t), "abc123")
	if !isMember(folder, bobID) {
		t.Error("central membership missing after partial failure")
	}
}

func TestSyncFoldersContinuesPastFailures(t *testing.T) {
	central := newFakeInstance(t, centralID, centralConfig)
	bobPeer := newFakeInstance(t, bobID, emptyPeerConfig)
	e := newTestEngine(t, central)
	bob := peerUser("Bob", bobID, bobPeer)

	results := e.SyncFolders(
		[]string{"secret12", "abc123"},
		map[string]string{"secret12": "Leo Private", "abc123": "Leo Share"},
		bob,
	)

	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	var denied *AccessDeniedError
	if !errors.As(results[0].Err, &denied) {
		t.Errorf("results[0].Err = %v, want AccessDeniedError", results[0].Err)
	}
	if results[1].Err != nil {
		t.Errorf("results[1].Err = %v, want nil", results[1].Err)
	}
}

func TestUnsyncFolderRemovesBothSides(t *testing.T) {
	central := newFakeInstance(t, centralID, centralConfig)
	bobPeer := newFakeInstance(t, bobID, emptyPeerConfig)
	e := newTestEngine(t, central)
	bob := peerUser("Bob", bobID, bobPeer)

	if err := e.SyncFolder("abc123", bob); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := e.UnsyncFolder("abc123", bob); err != nil {
		t.Fatalf("unsync: %v", err)
	}

	folder := findFolder(t, central.currentConfig(t), "abc123")
	if isMember(folder, bobID) {
		t.Error("bob still a member on central after unsync")
	}
	if !isMember(folder, leoID) {
		t.Error("unsync removed an unrelated member")
	}
	for _, f := range bobPeer.currentConfig(t).Folders {
		if f.ID == "abc123" {
			t.Error("folder still on the peer after unsync")
		}
	}
}

func TestUnsyncFolderWithoutPeerAPIIsPartial(t *testing.T) {
	central := newFakeInstance(t, centralID, centralConfig)
	e := newTestEngine(t, central)

	err := e.UnsyncFolder("abc123", settings.User{Name: "Leo", DeviceID: leoID})
	var partial *PartialError
	if !errors.As(err, &partial) {
		t.Fatalf("err = %v, want PartialError", err)
	}
	if !errors.Is(err, ErrPeerNotConfigured) {
		t.Errorf("err = %v, want wrapped ErrPeerNotConfigured", err)
	}

	// The central removal still happened.
	folder := findFolder(t, central.currentConfig(t), "abc123")
	if isMember(folder, leoID) {
		t.Error("leo still a member on central")
	}
}

func TestUnsyncFolderUnknownFolder(t *testing.T) {
	central := newFakeInstance(t, centralID, centralConfig)
	e := newTestEngine(t, central)

	err := e.UnsyncFolder("nope", settings.User{Name: "Bob", DeviceID: bobID})
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
	if central.postCount() != 0 {
		t.Error("config written for unknown folder")
	}
}

func TestAddDevice(t *testing.T) {
	central := newFakeInstance(t, centralID, centralConfig)
	e := newTestEngine(t, central)

	if err := e.AddDevice("ANADEV", "ana-phone"); err != nil {
		t.Fatalf("AddDevice: %v", err)
	}

	var added syncthing.DeviceConfig
	for _, d := range central.currentConfig(t).Devices {
		if d.DeviceID == "ANADEV" {
			added = d
		}
	}
	if added.DeviceID == "" {
		t.Fatal("device not registered")
	}
	if added.Name != "ana-phone" {
		t.Errorf("name = %q", added.Name)
	}
	if len(added.Addresses) != 1 || added.Addresses[0] != "dynamic" {
		t.Errorf("addresses = %v", added.Addresses)
	}
	if added.Compression != "metadata" {
		t.Errorf("compression = %q", added.Compression)
	}

	err := e.AddDevice("ANADEV", "ana-phone")
	var exists *AlreadyExistsError
	if !errors.As(err, &exists) {
		t.Fatalf("second add: err = %v, want AlreadyExistsError", err)
	}
	if central.postCount() != 1 {
		t.Errorf("config posted %d times, want 1", central.postCount())
	}
}

func TestAddFolderDefaultsAndPush(t *testing.T) {
	central := newFakeInstance(t, centralID, centralConfig)
	bobPeer := newFakeInstance(t, bobID, emptyPeerConfig)
	e := newTestEngine(t, central)
	bob := peerUser("Bob", bobID, bobPeer)

	folder, err := e.AddFolder("Bob Docs", "/srv/sync/bob-docs", bob, false)
	if err != nil {
		t.Fatalf("AddFolder: %v", err)
	}

	if len(folder.ID) != 10 {
		t.Errorf("folder id %q, want 10 chars", folder.ID)
	}
	if folder.Type != "sendreceive" {
		t.Errorf("type = %q", folder.Type)
	}
	if folder.RescanIntervalS != 60 {
		t.Errorf("rescanIntervalS = %d", folder.RescanIntervalS)
	}
	if !folder.FsWatcherEnabled {
		t.Error("fsWatcherEnabled not set")
	}
	if got := deviceIDs(folder); len(got) != 2 || got[0] != centralID || got[1] != bobID {
		t.Errorf("devices = %v", got)
	}

	findFolder(t, central.currentConfig(t), folder.ID)
	findFolder(t, bobPeer.currentConfig(t), folder.ID)
	if bobPeer.postCount() != 1 {
		t.Errorf("peer posted %d times, want 1", bobPeer.postCount())
	}
}

func TestAddFolderDuplicatePath(t *testing.T) {
	central := newFakeInstance(t, centralID, centralConfig)
	e := newTestEngine(t, central)

	_, err := e.AddFolder("Clone", "/srv/sync/leo-share", settings.User{Name: "Bob", DeviceID: bobID}, false)
	var exists *AlreadyExistsError
	if !errors.As(err, &exists) {
		t.Fatalf("err = %v, want AlreadyExistsError", err)
	}
	if central.postCount() != 0 {
		t.Error("config written for duplicate path")
	}
}

func TestFolderViewDisplayText(t *testing.T) {
	view := FolderView{ID: "abc123", Label: "Docs", Path: "/srv/sync/docs", Private: true}
	if got := view.DisplayText(); got != "Docs [PRIVATE] (abc123) → /srv/sync/docs" {
		t.Errorf("DisplayText = %q", got)
	}
}

func TestRefreshClassifiesPerUser(t *testing.T) {
	central := newFakeInstance(t, centralID, centralConfig)
	e := newTestEngine(t, central)

	bob := settings.User{Name: "Bob", DeviceID: bobID}
	leo := settings.User{Name: "Leo", DeviceID: leoID}
	doc := settings.Settings{Users: []settings.User{bob, leo}}

	view, err := e.Refresh(doc, bob)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if len(view.Mine) != 0 {
		t.Errorf("bob's Mine = %v, want empty", view.Mine)
	}
	// The non-private folder Leo shares is discoverable; the private one is
	// hidden entirely.
	if len(view.Discoverable) != 1 || view.Discoverable[0].ID != "abc123" {
		t.Fatalf("bob's Discoverable = %v, want [abc123]", view.Discoverable)
	}

	view, err = e.Refresh(doc, leo)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(view.Mine) != 2 {
		t.Fatalf("leo's Mine = %v, want both folders", view.Mine)
	}
	if len(view.Discoverable) != 0 {
		t.Errorf("leo's Discoverable = %v, want empty", view.Discoverable)
	}

	if view.Uptime != 4242 {
		t.Errorf("uptime = %d", view.Uptime)
	}
	if view.ThisID != centralID {
		t.Errorf("thisID = %q", view.ThisID)
	}
}

func TestRefreshDeviceViews(t *testing.T) {
	central := newFakeInstance(t, centralID, centralConfig)
	e := newTestEngine(t, central)

	bob := settings.User{Name: "Bob", DeviceID: bobID}
	leo := settings.User{Name: "Leo", DeviceID: leoID}
	view, err := e.Refresh(settings.Settings{Users: []settings.User{bob, leo}}, bob)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if len(view.Devices) != 3 {
		t.Fatalf("got %d devices, want 3", len(view.Devices))
	}
	if !view.Devices[0].ThisDevice {
		t.Error("first device view is not the central instance")
	}
	for _, d := range view.Devices[1:] {
		switch d.DeviceID {
		case bobID:
			if d.Owner != "Bob" || !d.Connected || d.InBytesTotal != 1024 {
				t.Errorf("bob device view = %+v", d)
			}
		case leoID:
			if d.Owner != "Leo" || d.Connected {
				t.Errorf("leo device view = %+v", d)
			}
		}
	}
}

func TestRefreshRequiresActiveDeviceID(t *testing.T) {
	central := newFakeInstance(t, centralID, centralConfig)
	e := newTestEngine(t, central)

	_, err := e.Refresh(settings.Settings{}, settings.User{Name: "Bob"})
	var missing *ConfigMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want ConfigMissingError", err)
	}
}

func TestRefreshDiscoversThisID(t *testing.T) {
	central := newFakeInstance(t, centralID, centralConfig)
	client, err := syncthing.NewClient(central.server.URL, central.apiKey)
	if err != nil {
		t.Fatal(err)
	}
	e := New(client, "", log.New(io.Discard))

	view, err := e.Refresh(settings.Settings{}, settings.User{Name: "Bob", DeviceID: bobID})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if view.ThisID != centralID {
		t.Errorf("thisID = %q, want %q", view.ThisID, centralID)
	}
	if e.ThisID != centralID {
		t.Errorf("engine did not keep the discovered id")
	}
}

func TestRefreshSurvivesSleepingPeer(t *testing.T) {
	central := newFakeInstance(t, centralID, centralConfig)
	e := newTestEngine(t, central)

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	bob := settings.User{Name: "Bob", DeviceID: bobID, APIURL: deadURL, APIKey: "k"}
	view, err := e.Refresh(settings.Settings{Users: []settings.User{bob}}, bob)
	if err != nil {
		t.Fatalf("Refresh with unreachable peer: %v", err)
	}
	if len(view.Drift) != 0 {
		t.Errorf("drift reported from an unreachable peer: %v", view.Drift)
	}
}

func TestDetectDrift(t *testing.T) {
	// Central says bob has abc123; bob's instance instead has stale999
	// still pointing at the central device.
	centralDoc := `{
		"devices": [{"deviceID": "CENTRALDEV"}, {"deviceID": "BOBDEV"}],
		"folders": [
			{"id": "abc123", "label": "Leo Share", "path": "/srv/sync/leo-share",
			 "devices": [{"deviceID": "CENTRALDEV"}, {"deviceID": "BOBDEV"}]}
		]
	}`
	peerDoc := `{
		"devices": [{"deviceID": "BOBDEV"}, {"deviceID": "CENTRALDEV"}],
		"folders": [
			{"id": "stale999", "label": "Old Share", "path": "/home/bob/old",
			 "devices": [{"deviceID": "BOBDEV"}, {"deviceID": "CENTRALDEV"}]}
		]
	}`
	central := newFakeInstance(t, centralID, centralDoc)
	bobPeer := newFakeInstance(t, bobID, peerDoc)
	e := newTestEngine(t, central)
	bob := peerUser("Bob", bobID, bobPeer)

	view, err := e.Refresh(settings.Settings{Users: []settings.User{bob}}, bob)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if len(view.Drift) != 2 {
		t.Fatalf("drift = %v, want 2 entries", view.Drift)
	}
	byID := map[string]Drift{}
	for _, d := range view.Drift {
		byID[d.FolderID] = d
	}
	if d := byID["abc123"]; !d.OnCentral || d.OnPeer {
		t.Errorf("abc123 drift = %+v", d)
	}
	if d := byID["stale999"]; d.OnCentral || !d.OnPeer {
		t.Errorf("stale999 drift = %+v", d)
	}

	// Drift is report-only, nothing gets repaired.
	if central.postCount() != 0 || bobPeer.postCount() != 0 {
		t.Error("drift detection wrote config")
	}
}
