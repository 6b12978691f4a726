package profile

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrMissingData   = errors.New("Missing required data")
	ErrNoValidAction = errors.New("No valid action performed")
	ErrNoValidFile   = errors.New("No valid file uploaded")
)

const (
	MsgConflict      = "Data may be outdated. Refresh to ensure accuracy."
	MsgUpdated       = "Updated successfully"
	MsgPhotoUpdated  = "Successfully updated your profile photo"
	MsgCoverUpdated  = "Successfully updated your cover photo"
	MsgCoverRemoved  = "Successfully removed cover photo"
	MsgPhotoRemoved  = "Successfully removed profile photo"
	lastUpdatedField = "last_updated"
)

// StorageError reports a failed image or profile write. It is never retried.
type StorageError struct {
	Action string
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("Failed to %s: %s", e.Action, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Result is the business outcome of an update. Conflicts are results, not errors.
type Result struct {
	Conflict bool
	// Whether the profile was written.
	Changed bool
	Message string
	// Request fields echoed back, corrected to the stored values on conflict.
	Data          map[string]interface{}
	InvalidFields []string
	LastUpdated   time.Time
}
