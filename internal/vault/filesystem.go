package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"merovingian/internal/contract"
)

// FileSystemArchive is a filesystem-based implementation of contract.Archive.
// Snapshots are stored as files in a directory structure:
//
//	<root>/
//	  snapshots/
//	    <repo>/
//	      <versionID>   (one file per archived version)
//	      LATEST        (version ID of the newest snapshot)
type FileSystemArchive struct {
	root         string
	snapshotsDir string
}

// NewFileSystemArchive creates a new filesystem archive rooted at the given path.
func NewFileSystemArchive(root string) (*FileSystemArchive, error) {
	snapshotsDir := filepath.Join(root, "snapshots")

	if err := os.MkdirAll(snapshotsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshots directory: %w", err)
	}

	return &FileSystemArchive{
		root:         root,
		snapshotsDir: snapshotsDir,
	}, nil
}

// PutSnapshot stores a snapshot and then points LATEST at it. A failed
// write leaves both the previous snapshot and the marker untouched.
func (a *FileSystemArchive) PutSnapshot(repo, versionID string, r io.Reader, size int64) error {
	if err := validateSnapshotKey(repo, versionID); err != nil {
		return err
	}

	repoDir := filepath.Join(a.snapshotsDir, repo)
	if err := os.MkdirAll(repoDir, 0755); err != nil {
		return fmt.Errorf("failed to create repository directory: %w", err)
	}

	if err := writeFile(filepath.Join(repoDir, versionID), r, size); err != nil {
		return err
	}

	marker := strings.NewReader(versionID)
	return writeFile(filepath.Join(repoDir, latestName), marker, int64(len(versionID)))
}

// GetSnapshot retrieves a snapshot and writes it to w.
func (a *FileSystemArchive) GetSnapshot(repo, versionID string, w io.Writer) error {
	if err := validateSnapshotKey(repo, versionID); err != nil {
		return err
	}
	srcPath := filepath.Join(a.snapshotsDir, repo, versionID)
	return readFile(srcPath, w, fmt.Sprintf("snapshot not found: %s/%s", repo, versionID))
}

// LatestSnapshot returns the version ID in the repository's LATEST marker.
// Returns "" if nothing has been archived for repo.
func (a *FileSystemArchive) LatestSnapshot(repo string) (string, error) {
	if err := validateName("repository name", repo); err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(a.snapshotsDir, repo, latestName))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading latest marker: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ValidateSetup verifies that the archive directories are accessible.
func (a *FileSystemArchive) ValidateSetup() error {
	for _, dir := range []string{a.root, a.snapshotsDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("archive directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("archive path is not a directory: %s", dir)
		}
	}

	return nil
}

// writeFile writes data from r to the specified path using atomic write (temp file + rename).
func writeFile(destPath string, r io.Reader, expectedSize int64) error {
	// Create temp file in the same directory to ensure atomic rename works
	dir := filepath.Dir(destPath)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// readFile copies the file at srcPath to w.
func readFile(srcPath string, w io.Writer, notFoundMsg string) error {
	f, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s", notFoundMsg)
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	return nil
}

// Compile-time check that FileSystemArchive implements contract.Archive
var _ contract.Archive = (*FileSystemArchive)(nil)
