package contract

import "context"

// Scanner extracts the current endpoint set of a repository from its sources.
// Malformed contract sources degrade to fewer endpoints rather than errors.
type Scanner interface {
	Scan(ctx context.Context, repo RepoInfo) ([]Endpoint, error)
}
