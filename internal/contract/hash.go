package contract

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
)

// ComputeHash returns a deterministic SHA-256 hex digest of an endpoint set.
// Each endpoint is reduced to (method, path, request schema, response schema);
// the tuples are sorted before serialization, so input order does not matter.
// Summaries and repository names do not contribute.
func ComputeHash(endpoints []Endpoint) string {
	canonical := make([][4]string, len(endpoints))
	for i, ep := range endpoints {
		canonical[i] = [4]string{ep.Method, ep.Path, ep.RequestSchema, ep.ResponseSchema}
	}
	slices.SortFunc(canonical, func(a, b [4]string) int {
		for i := range a {
			if a[i] != b[i] {
				if a[i] < b[i] {
					return -1
				}
				return 1
			}
		}
		return 0
	})

	// [][4]string always marshals.
	data, _ := json.Marshal(canonical)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
