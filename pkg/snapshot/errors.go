package snapshot

import (
	"fmt"
	"strings"
)

// CreationError reports a failed snapshot creation together with the
// backend's diagnostic. NameConflict is set when the requested name
// already exists in the volume group.
type CreationError struct {
	Name         string
	NameConflict bool
	Err          error
}

func (e *CreationError) Error() string {
	if e.NameConflict {
		return fmt.Sprintf("create snapshot %s: name already in use: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("create snapshot %s: %v", e.Name, e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }

// RemovalError reports a failed snapshot removal. For batch removals the
// failure of one member does not stop the remaining members.
type RemovalError struct {
	Target string
	Err    error
}

func (e *RemovalError) Error() string {
	return fmt.Sprintf("remove %s: %v", e.Target, e.Err)
}

func (e *RemovalError) Unwrap() error { return e.Err }

// lvcreate reports a duplicate LV name on stderr; there is no structured
// error code to inspect.
func isNameConflict(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already exists")
}
