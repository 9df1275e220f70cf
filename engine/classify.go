package engine

import (
	"github.com/samber/lo"

	"github.com/pdrolopes/syncmanager_TUI/syncthing"
)

// OwnerID is the device that requested the folder's creation: the first
// device in the folder's list that is not the central instance. This is a
// positional convention, the list order is load-bearing.
func OwnerID(folder syncthing.FolderConfig, thisID string) string {
	for _, d := range folder.Devices {
		if d.DeviceID != thisID {
			return d.DeviceID
		}
	}
	return ""
}

func isMember(folder syncthing.FolderConfig, deviceID string) bool {
	return lo.SomeBy(folder.Devices, func(d syncthing.FolderDevice) bool {
		return d.DeviceID == deviceID
	})
}

// Classify splits the central config's folders, as seen by the user with
// device id activeID, into the ones already shared with them ("mine") and
// the ones they could join ("discoverable"). Everything else is hidden.
//
// A folder is discoverable only when some other user's device already shares
// it, and, for private folders, only when the viewer owns it. Membership
// always wins: a private two-party folder is "mine" for its member
// regardless of the privacy flag.
func Classify(
	folders []syncthing.FolderConfig,
	thisID, activeID string,
	otherIDs []string,
) (mine, discoverable []syncthing.FolderConfig) {
	seen := make(map[string]struct{}, len(folders))

	for _, folder := range folders {
		// folders not involving this instance are none of our business
		if !isMember(folder, thisID) {
			continue
		}

		if isMember(folder, activeID) {
			mine = append(mine, folder)
			continue
		}

		sharedWithOther := lo.SomeBy(otherIDs, func(id string) bool {
			return isMember(folder, id)
		})
		if !sharedWithOther {
			continue
		}

		if folder.Private && OwnerID(folder, thisID) != activeID {
			continue
		}

		if _, dup := seen[folder.ID]; dup {
			continue
		}
		seen[folder.ID] = struct{}{}
		discoverable = append(discoverable, folder)
	}

	return mine, discoverable
}
