package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"merovingian/internal/config"
	"merovingian/internal/contract"
)

func writeRepo(t *testing.T, files map[string]string) string {
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

const minimalSpec = `
paths:
  /ping:
    get:
      summary: ping
`

const minimalModel = `
from pydantic import BaseModel

class Ping(BaseModel):
    ok: bool
`

func TestScanner_Scan(t *testing.T) {
	root := writeRepo(t, map[string]string{
		"openapi.yaml":                  minimalSpec,
		"docs/api/swagger.json":         `{"paths": {"/docs": {"post": {}}}}`,
		"node_modules/dep/openapi.yaml": minimalSpec,
		"src/service/models.py":         minimalModel,
		"scripts/models.py":             minimalModel,
		"src/.venv/lib/models.py":       minimalModel,
	})

	s := New(config.ScannerConfig{}, nil)

	tests := []struct {
		ctype contract.ContractType
		want  []string
	}{
		{ctype: contract.ContractTypeOpenAPI, want: []string{"POST /docs", "GET /ping"}},
		{ctype: contract.ContractTypePydantic, want: []string{"SCHEMA src.service.models.Ping"}},
		{ctype: contract.ContractTypeAuto, want: []string{"POST /docs", "GET /ping", "SCHEMA src.service.models.Ping"}},
	}
	for _, tt := range tests {
		t.Run(tt.ctype.String(), func(t *testing.T) {
			repo := contract.RepoInfo{Name: "svc", Path: root, ContractType: tt.ctype}
			eps, err := s.Scan(context.Background(), repo)
			if err != nil {
				t.Fatalf("Scan: %v", err)
			}
			got := make([]string, len(eps))
			for i, ep := range eps {
				got[i] = ep.Key().String()
				if ep.RepoName != "svc" {
					t.Errorf("endpoint %s repo = %q", got[i], ep.RepoName)
				}
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("endpoint %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestScanner_ConfiguredPatternsAndIgnoreFile(t *testing.T) {
	root := writeRepo(t, map[string]string{
		"api.yaml":              minimalSpec,
		"openapi.yaml":          `paths: {"/default": {get: {}}}`,
		"vendor/api.yaml":       minimalSpec,
		".merovingianignore":    "vendor/\n",
		"models/user.py":        minimalModel,
		"src/ignored/models.py": minimalModel,
	})

	s := New(config.ScannerConfig{
		OpenAPIPatterns: []string{"api.yaml"},
		ModelScanDirs:   []string{"models"},
	}, contract.NewNopLogger())

	eps, err := s.Scan(context.Background(), contract.RepoInfo{Name: "svc", Path: root})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(eps) != 2 {
		t.Fatalf("got %+v, want 2 endpoints", eps)
	}
	if eps[0].Key().String() != "GET /ping" {
		t.Errorf("first = %s", eps[0].Key())
	}
	if eps[1].Path != "models.user.Ping" {
		t.Errorf("second = %s", eps[1].Key())
	}
}

func TestScanner_MissingPath(t *testing.T) {
	s := New(config.ScannerConfig{}, nil)
	file := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{filepath.Join(t.TempDir(), "gone"), file} {
		eps, err := s.Scan(context.Background(), contract.RepoInfo{Name: "r", Path: p})
		if err != nil {
			t.Fatalf("Scan(%s): %v", p, err)
		}
		if len(eps) != 0 {
			t.Errorf("Scan(%s) = %d endpoints, want none", p, len(eps))
		}
	}
}

func TestScanner_Cancelled(t *testing.T) {
	root := writeRepo(t, map[string]string{"openapi.yaml": minimalSpec})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(config.ScannerConfig{}, nil)
	if _, err := s.Scan(ctx, contract.RepoInfo{Name: "r", Path: root, ContractType: contract.ContractTypeOpenAPI}); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestScanner_DuplicateIdentities(t *testing.T) {
	root := writeRepo(t, map[string]string{
		"openapi.yaml": "paths:\n  /x:\n    get:\n      summary: one\n",
		"openapi.json": `{"paths": {"/x": {"get": {"summary": "two"}}, "/y": {"get": {}}}}`,
	})
	s := New(config.ScannerConfig{}, nil)

	eps, err := s.Scan(context.Background(), contract.RepoInfo{Name: "svc", Path: root, ContractType: contract.ContractTypeOpenAPI})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(eps) != 2 {
		t.Fatalf("got %d endpoints %+v, want 2", len(eps), eps)
	}
	seen := make(map[contract.EndpointKey]bool)
	for _, ep := range eps {
		if seen[ep.Key()] {
			t.Errorf("endpoint %s returned twice", ep.Key())
		}
		seen[ep.Key()] = true
	}
	if !seen[contract.EndpointKey{Method: "GET", Path: "/x"}] || !seen[contract.EndpointKey{Method: "GET", Path: "/y"}] {
		t.Errorf("got %v, want GET /x and GET /y", seen)
	}
}

func TestScanner_DedupeLastWins(t *testing.T) {
	s := New(config.ScannerConfig{}, nil)
	eps := []contract.Endpoint{
		{Method: "GET", Path: "/x", Summary: "one"},
		{Method: "GET", Path: "/y"},
		{Method: "GET", Path: "/x", Summary: "two"},
	}
	got := s.dedupe(contract.RepoInfo{Name: "svc"}, eps)
	if len(got) != 2 {
		t.Fatalf("got %d endpoints, want 2", len(got))
	}
	if got[0].Path != "/x" || got[0].Summary != "two" {
		t.Errorf("first endpoint = %+v, want GET /x with the later summary", got[0])
	}
	if got[1].Path != "/y" {
		t.Errorf("second endpoint = %+v, want GET /y", got[1])
	}
}
