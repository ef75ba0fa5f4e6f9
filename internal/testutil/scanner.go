package testutil

import (
	"context"
	"sync"

	"merovingian/internal/contract"
)

// StubScanner returns preset endpoint sets keyed by repository name.
// Repositories without a preset expose nothing. Safe for concurrent use.
type StubScanner struct {
	mu        sync.Mutex
	endpoints map[string][]contract.Endpoint
	err       error
	calls     int
}

func NewStubScanner() *StubScanner {
	return &StubScanner{endpoints: make(map[string][]contract.Endpoint)}
}

// Set replaces the endpoints the next scans of repo will return.
func (s *StubScanner) Set(repo string, endpoints ...contract.Endpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoints[repo] = endpoints
}

// Fail makes every subsequent scan return err. Pass nil to clear.
func (s *StubScanner) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Calls returns how many scans have been requested.
func (s *StubScanner) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *StubScanner) Scan(_ context.Context, repo contract.RepoInfo) ([]contract.Endpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	eps := make([]contract.Endpoint, len(s.endpoints[repo.Name]))
	copy(eps, s.endpoints[repo.Name])
	return eps, nil
}

var _ contract.Scanner = (*StubScanner)(nil)
