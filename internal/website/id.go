package website

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrInvalidID is returned for job ids that cannot name a single file or
// directory.
var ErrInvalidID = errors.New("invalid job id")

// ValidateID checks that id is one local path element, so it can be joined
// into output paths and object keys without leaving the target directory.
func ValidateID(id string) error {
	if id == "" || id == "." || !filepath.IsLocal(id) || id != filepath.Base(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
