package engine

import (
	"errors"
	"fmt"
)

// The multi-step protocols halt on the first fatal error and leave committed
// steps in place; there is no rollback. Callers tell the kinds apart with
// errors.As / errors.Is.

// ConfigMissingError is a required setting (endpoint, key, device id) that
// was not configured. Checked before any network call.
type ConfigMissingError struct {
	Field string
}

func (e *ConfigMissingError) Error() string {
	return fmt.Sprintf("configuration needed: %s is not set", e.Field)
}

// NotFoundError is a folder or device absent from the fetched config.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found in configuration", e.Kind, e.ID)
}

// AlreadyExistsError is a duplicate device id, folder id or folder path.
type AlreadyExistsError struct {
	Kind  string
	Value string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.Value)
}

// AccessDeniedError is a private-folder ownership violation: private folders
// are sync-restricted to their owner only, enforced before any mutation.
type AccessDeniedError struct {
	FolderID string
	Label    string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("folder %q is private and only accessible to its owner", e.Label)
}

// ErrPeerNotConfigured marks a skipped peer propagation because the user has
// no API endpoint/key configured.
var ErrPeerNotConfigured = errors.New("peer API details are not configured")

// PartialError reports that the central mutation committed but the peer-side
// propagation did not. Distinct from total failure: the sharing declaration
// exists on the central instance and the peer has to be fixed up manually or
// on a retry.
type PartialError struct {
	User string
	Err  error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("central config updated, but updating %s's device failed: %v", e.User, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }

// IsPartial reports whether err is a partial success rather than a total
// failure.
func IsPartial(err error) bool {
	var partial *PartialError
	return errors.As(err, &partial)
}
