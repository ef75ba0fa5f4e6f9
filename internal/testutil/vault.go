package testutil

import (
	"merovingian/internal/contract"
	"merovingian/internal/vault"
)

// NewTestArchive creates an empty in-memory snapshot archive.
func NewTestArchive() contract.Archive {
	return vault.NewMemoryArchive()
}
