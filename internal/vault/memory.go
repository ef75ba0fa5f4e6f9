package vault

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"merovingian/internal/contract"
)

// MemoryArchive is an in-memory implementation of contract.Archive.
// It is useful for testing and is safe for concurrent use.
type MemoryArchive struct {
	snapshots map[string][]byte // "repo/versionID" -> content
	latest    map[string]string // repo -> versionID
	mu        sync.RWMutex
}

// NewMemoryArchive creates an empty in-memory archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{
		snapshots: make(map[string][]byte),
		latest:    make(map[string]string),
	}
}

func snapshotKey(repo, versionID string) string {
	return repo + "/" + versionID
}

// PutSnapshot stores a snapshot and marks it as the repository's latest.
func (m *MemoryArchive) PutSnapshot(repo, versionID string, r io.Reader, size int64) error {
	if err := validateSnapshotKey(repo, versionID); err != nil {
		return err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshots[snapshotKey(repo, versionID)] = data
	m.latest[repo] = versionID
	return nil
}

// GetSnapshot writes a stored snapshot to w.
func (m *MemoryArchive) GetSnapshot(repo, versionID string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.snapshots[snapshotKey(repo, versionID)]
	if !ok {
		return fmt.Errorf("snapshot not found: %s/%s", repo, versionID)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	return nil
}

// LatestSnapshot returns the last version ID stored for repo, or "".
func (m *MemoryArchive) LatestSnapshot(repo string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.latest[repo], nil
}

// ValidateSetup always succeeds for the in-memory archive.
func (m *MemoryArchive) ValidateSetup() error {
	return nil
}

// Compile-time check that MemoryArchive implements contract.Archive
var _ contract.Archive = (*MemoryArchive)(nil)
