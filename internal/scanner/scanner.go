// Package scanner extracts normalized contract endpoints from repository
// sources: OpenAPI/Swagger documents and Python data-model definitions.
package scanner

import (
	"context"
	"fmt"
	"os"

	"merovingian/internal/config"
	"merovingian/internal/contract"
	"merovingian/internal/fs"
)

// Scanner implements contract.Scanner over the local filesystem.
type Scanner struct {
	cfg    config.ScannerConfig
	walker *fs.Walker
	logger contract.Logger
}

var _ contract.Scanner = (*Scanner)(nil)

// New creates a Scanner. Empty pattern or directory lists in cfg fall back to
// the package defaults of config.
func New(cfg config.ScannerConfig, logger contract.Logger) *Scanner {
	if len(cfg.OpenAPIPatterns) == 0 {
		cfg.OpenAPIPatterns = append([]string(nil), config.DefaultOpenAPIPatterns...)
	}
	if len(cfg.ModelScanDirs) == 0 {
		cfg.ModelScanDirs = append([]string(nil), config.DefaultModelScanDirs...)
	}
	if cfg.Ignore == nil {
		cfg.Ignore = append([]string(nil), config.DefaultIgnore...)
	}
	if logger == nil {
		logger = contract.NewNopLogger()
	}
	return &Scanner{
		cfg:    cfg,
		walker: fs.NewWalker(cfg.Ignore),
		logger: logger,
	}
}

// Scan extracts the endpoints currently exposed by repo. A repository whose
// path no longer exists, or is not a directory, exposes nothing.
func (s *Scanner) Scan(ctx context.Context, repo contract.RepoInfo) ([]contract.Endpoint, error) {
	info, err := os.Stat(repo.Path)
	if err != nil || !info.IsDir() {
		s.logger.Warn("repository path is not a directory", "repo", repo.Name, "path", repo.Path)
		return nil, nil
	}

	var eps []contract.Endpoint
	switch repo.ContractType {
	case contract.ContractTypeOpenAPI:
		eps, err = s.scanOpenAPI(ctx, repo)
	case contract.ContractTypePydantic:
		eps, err = s.scanModels(ctx, repo)
	case contract.ContractTypeAuto:
		var models []contract.Endpoint
		eps, err = s.scanOpenAPI(ctx, repo)
		if err == nil {
			models, err = s.scanModels(ctx, repo)
			eps = append(eps, models...)
		}
	default:
		return nil, fmt.Errorf("unsupported contract type %q", repo.ContractType)
	}
	if err != nil {
		return nil, err
	}
	return s.dedupe(repo, eps), nil
}

// dedupe keeps one endpoint per identity. The last occurrence wins, as it
// does when the store upserts the set, and keeps the first one's position.
func (s *Scanner) dedupe(repo contract.RepoInfo, eps []contract.Endpoint) []contract.Endpoint {
	index := make(map[contract.EndpointKey]int, len(eps))
	out := eps[:0:0]
	for _, ep := range eps {
		if i, ok := index[ep.Key()]; ok {
			s.logger.Debug("duplicate endpoint replaced", "repo", repo.Name, "endpoint", ep.Key().String())
			out[i] = ep
			continue
		}
		index[ep.Key()] = len(out)
		out = append(out, ep)
	}
	return out
}
