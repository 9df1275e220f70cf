package syncthing

import (
	"encoding/json"
	"time"
)

// SYNCTHING DATA STRUCTURES
//
// The /rest/system/config endpoint has no partial-patch semantics: every
// write replaces the whole document. Config, FolderConfig and DeviceConfig
// therefore keep every JSON key they were parsed from, including the ones
// this tool has no field for, and re-emit them on marshal. Known fields win
// over the stashed raw value, so a mutated device list is what gets posted
// back while everything untouched survives the round trip.

type Config struct {
	Devices []DeviceConfig `json:"devices"`
	Folders []FolderConfig `json:"folders"`

	extra map[string]json.RawMessage
}

type FolderConfig struct {
	ID               string         `json:"id"`
	Label            string         `json:"label"`
	Path             string         `json:"path"`
	Type             string         `json:"type,omitempty"`
	RescanIntervalS  int            `json:"rescanIntervalS,omitempty"`
	FsWatcherEnabled bool           `json:"fsWatcherEnabled,omitempty"`
	Paused           bool           `json:"paused,omitempty"`
	Private          bool           `json:"private,omitempty"`
	Devices          []FolderDevice `json:"devices"`

	extra map[string]json.RawMessage
}

// FsWatcher is the effective watcher setting. Syncthing enables the
// filesystem watcher by default, so a parsed document without the key means
// true; only an explicit false disables it. The zero value of the struct
// field can't tell those apart, the stashed raw keys can.
func (f FolderConfig) FsWatcher() bool {
	if _, ok := f.extra["fsWatcherEnabled"]; ok {
		return f.FsWatcherEnabled
	}
	if f.extra == nil {
		// built in code, not parsed; trust the field
		return f.FsWatcherEnabled
	}
	return true
}

type FolderDevice struct {
	DeviceID           string `json:"deviceID"`
	IntroducedBy       string `json:"introducedBy,omitempty"`
	EncryptionPassword string `json:"encryptionPassword,omitempty"`
}

type DeviceConfig struct {
	DeviceID    string   `json:"deviceID"`
	Name        string   `json:"name"`
	Addresses   []string `json:"addresses,omitempty"`
	Compression string   `json:"compression,omitempty"`
	Introducer  bool     `json:"introducer,omitempty"`
	Paused      bool     `json:"paused,omitempty"`

	extra map[string]json.RawMessage
}

func (c *Config) UnmarshalJSON(data []byte) error {
	type alias Config
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = Config(a)
	return json.Unmarshal(data, &c.extra)
}

func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	return marshalKeepingExtra(alias(c), c.extra)
}

func (f *FolderConfig) UnmarshalJSON(data []byte) error {
	type alias FolderConfig
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*f = FolderConfig(a)
	return json.Unmarshal(data, &f.extra)
}

func (f FolderConfig) MarshalJSON() ([]byte, error) {
	type alias FolderConfig
	return marshalKeepingExtra(alias(f), f.extra)
}

func (d *DeviceConfig) UnmarshalJSON(data []byte) error {
	type alias DeviceConfig
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*d = DeviceConfig(a)
	return json.Unmarshal(data, &d.extra)
}

func (d DeviceConfig) MarshalJSON() ([]byte, error) {
	type alias DeviceConfig
	return marshalKeepingExtra(alias(d), d.extra)
}

// marshalKeepingExtra marshals the known fields of v, then restores every
// raw key that the known fields didn't produce. An omitempty field that was
// explicitly false/zero in the source document comes back from the raw copy
// untouched.
func marshalKeepingExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	known, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return known, nil
	}

	var out map[string]json.RawMessage
	if err := json.Unmarshal(known, &out); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := out[k]; !ok {
			out[k] = raw
		}
	}
	return json.Marshal(out)
}

type SystemStatus struct {
	MyID      string    `json:"myID"`
	StartTime time.Time `json:"startTime"`
	Uptime    int64     `json:"uptime"`
}

type Connection struct {
	At            time.Time `json:"at"`
	InBytesTotal  int64     `json:"inBytesTotal"`
	OutBytesTotal int64     `json:"outBytesTotal"`
	Connected     bool      `json:"connected"`
	Paused        bool      `json:"paused"`
	ClientVersion string    `json:"clientVersion"`
	Address       string    `json:"address"`
}

type ConnectionTotal struct {
	At            time.Time `json:"at"`
	InBytesTotal  int64     `json:"inBytesTotal"`
	OutBytesTotal int64     `json:"outBytesTotal"`
}

type SystemConnections struct {
	Connections map[string]Connection `json:"connections"`
	Total       ConnectionTotal       `json:"total"`
}
