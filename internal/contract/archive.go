package contract

import "io"

// Archive stores exported contract snapshots outside the local database.
// Snapshots are streamed so backends never need to hold them fully in memory.
type Archive interface {
	// PutSnapshot stores a snapshot for repo under versionID and marks it as
	// the repository's latest. size is the number of bytes that will be read from r.
	PutSnapshot(repo, versionID string, r io.Reader, size int64) error

	// GetSnapshot writes the stored snapshot to w.
	GetSnapshot(repo, versionID string, w io.Writer) error

	// LatestSnapshot returns the version ID most recently stored for repo,
	// or "" if nothing has been archived yet.
	LatestSnapshot(repo string) (string, error)

	// ValidateSetup verifies that the archive is accessible and properly configured.
	ValidateSetup() error
}
