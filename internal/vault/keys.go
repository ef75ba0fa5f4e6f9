// Package vault implements contract.Archive backends that keep exported
// contract snapshots outside the local database.
package vault

import (
	"fmt"
	"strings"
)

// latestName is the object that records the newest version ID of a repository.
const latestName = "LATEST"

// validateName rejects repository names and version IDs that would escape
// their directory or collide with the latest marker.
func validateName(kind, name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%s is required", kind)
	case name == "." || name == "..":
		return fmt.Errorf("invalid %s %q", kind, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%s %q must not contain path separators", kind, name)
	}
	return nil
}

func validateSnapshotKey(repo, versionID string) error {
	if err := validateName("repository name", repo); err != nil {
		return err
	}
	if err := validateName("version ID", versionID); err != nil {
		return err
	}
	if versionID == latestName {
		return fmt.Errorf("version ID %q is reserved", versionID)
	}
	return nil
}
