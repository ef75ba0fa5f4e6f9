package contract

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Service coordinates extraction, diffing and persistence to answer the
// questions the CLI asks: what does a repository expose, who depends on it,
// and what would break if it changed.
type Service struct {
	store   Store
	scanner Scanner
	logger  Logger
	clock   Clock
	idgen   IDGenerator
}

// NewService creates a new Service with the provided dependencies.
func NewService(store Store, scanner Scanner, logger Logger, clock Clock, idgen IDGenerator) *Service {
	return &Service{
		store:   store,
		scanner: scanner,
		logger:  logger,
		clock:   clock,
		idgen:   idgen,
	}
}

// RegisterRepo adds a repository, or updates the path and contract type of an
// existing one.
func (s *Service) RegisterRepo(ctx context.Context, name, path string, ctype ContractType) (*RepoInfo, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("repository name is required")
	}
	if path == "" {
		return nil, errors.New("repository path is required")
	}

	repo := RepoInfo{
		Name:         name,
		Path:         path,
		ContractType: ctype,
		RegisteredAt: s.clock.Now(),
	}
	if err := s.store.RegisterRepo(ctx, repo); err != nil {
		return nil, fmt.Errorf("registering repository: %w", err)
	}

	s.logger.Info("repository registered", "name", name, "path", path, "contract_type", ctype.String())
	return &repo, nil
}

// UnregisterRepo removes a repository together with its endpoints, versions and reports.
func (s *Service) UnregisterRepo(ctx context.Context, name string) error {
	removed, err := s.store.UnregisterRepo(ctx, name)
	if err != nil {
		return fmt.Errorf("unregistering repository: %w", err)
	}
	if !removed {
		return fmt.Errorf("%s: %w", name, ErrNotRegistered)
	}
	s.logger.Info("repository unregistered", "name", name)
	return nil
}

// ListRepos returns all registered repositories.
func (s *Service) ListRepos(ctx context.Context) ([]RepoInfo, error) {
	repos, err := s.store.ListRepos(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}
	return repos, nil
}

// Scan re-extracts a repository's contract and replaces its stored endpoint
// set without recording a version or report. Returns the new endpoints and
// their snapshot hash.
func (s *Service) Scan(ctx context.Context, name string) ([]Endpoint, string, error) {
	repo, err := s.requireRepo(ctx, name)
	if err != nil {
		return nil, "", err
	}

	endpoints, err := s.scanner.Scan(ctx, *repo)
	if err != nil {
		return nil, "", fmt.Errorf("scanning %s: %w", name, err)
	}
	if _, err := s.store.ReplaceEndpoints(ctx, name, endpoints); err != nil {
		return nil, "", fmt.Errorf("saving endpoints: %w", err)
	}

	hash := ComputeHash(endpoints)
	s.logger.Info("repository scanned", "name", name, "endpoints", len(endpoints), "hash", hash)
	return endpoints, hash, nil
}

// AssessImpact re-scans a repository, diffs the result against the stored
// endpoint set, attributes breaking changes to registered consumers and
// records a new contract version and impact report.
//
// The returned version is the snapshot that was persisted alongside the report.
func (s *Service) AssessImpact(ctx context.Context, name string) (*ImpactReport, *ContractVersion, error) {
	repo, err := s.requireRepo(ctx, name)
	if err != nil {
		return nil, nil, err
	}

	before, err := s.store.GetEndpoints(ctx, name)
	if err != nil {
		return nil, nil, fmt.Errorf("loading stored endpoints: %w", err)
	}

	after, err := s.scanner.Scan(ctx, *repo)
	if err != nil {
		return nil, nil, fmt.Errorf("scanning %s: %w", name, err)
	}

	breaking, nonBreaking := Diff(before, after)
	consumerCount, err := s.attachConsumers(ctx, name, breaking)
	if err != nil {
		return nil, nil, err
	}

	now := s.clock.Now()
	version := ContractVersion{
		RepoName:   name,
		VersionID:  s.idgen.New(),
		SpecHash:   ComputeHash(after),
		Endpoints:  after,
		CapturedAt: now,
	}
	if err := s.store.SaveVersion(ctx, version); err != nil {
		return nil, nil, fmt.Errorf("saving contract version: %w", err)
	}

	report := ImpactReport{
		ReportID:           s.idgen.New(),
		RepoName:           name,
		BreakingChanges:    breaking,
		NonBreakingChanges: nonBreaking,
		ConsumerCount:      consumerCount,
		CreatedAt:          now,
	}
	if err := s.store.SaveReport(ctx, report); err != nil {
		return nil, nil, fmt.Errorf("saving impact report: %w", err)
	}

	if _, err := s.store.ReplaceEndpoints(ctx, name, after); err != nil {
		return nil, nil, fmt.Errorf("saving endpoints: %w", err)
	}

	s.logger.Info("impact assessed",
		"name", name,
		"report_id", report.ReportID,
		"version_id", version.VersionID,
		"breaking", len(breaking),
		"non_breaking", len(nonBreaking),
		"consumers", consumerCount)
	return &report, &version, nil
}

// CheckBreaking reports the breaking changes a re-scan would produce, with
// affected consumers attached, without persisting anything.
func (s *Service) CheckBreaking(ctx context.Context, name string) ([]ContractChange, error) {
	repo, err := s.requireRepo(ctx, name)
	if err != nil {
		return nil, err
	}

	before, err := s.store.GetEndpoints(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("loading stored endpoints: %w", err)
	}

	after, err := s.scanner.Scan(ctx, *repo)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", name, err)
	}

	breaking, _ := Diff(before, after)
	if _, err := s.attachConsumers(ctx, name, breaking); err != nil {
		return nil, err
	}
	return breaking, nil
}

func (s *Service) requireRepo(ctx context.Context, name string) (*RepoInfo, error) {
	repo, err := s.store.GetRepo(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("loading repository: %w", err)
	}
	if repo == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrNotRegistered)
	}
	return repo, nil
}
