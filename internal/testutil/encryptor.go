package testutil

import (
	"merovingian/internal/contract"
	"merovingian/internal/encryption"
)

// NewTestEncryptor returns the reversible, keyless encryptor used in tests.
func NewTestEncryptor() contract.Encryptor {
	return encryption.NewTestEncryptor()
}
