package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"merovingian/internal/contract"
)

// WriteRepo creates the given files (slash-separated relative paths) under a
// fresh temporary directory and returns its path.
func WriteRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}

// Endpoint builds an endpoint with encoded request and response tables.
// Nil tables leave the schema absent.
func Endpoint(repo, method, path string, request, response contract.FieldTable) contract.Endpoint {
	return contract.Endpoint{
		RepoName:       repo,
		Method:         method,
		Path:           path,
		RequestSchema:  request.Encode(),
		ResponseSchema: response.Encode(),
	}
}

// Field is shorthand for a FieldDescriptor without a default.
func Field(typ string, required bool) contract.FieldDescriptor {
	return contract.FieldDescriptor{Type: typ, Required: required}
}
