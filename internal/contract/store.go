package contract

import (
	"context"
	"time"
)

// Store provides persistence for repositories, endpoints, consumer edges and
// the append-only version/report history.
type Store interface {
	// Repository operations

	// RegisterRepo inserts or replaces a repository record.
	RegisterRepo(ctx context.Context, repo RepoInfo) error

	// UnregisterRepo deletes a repository and everything it owns.
	// Returns false if the repository did not exist.
	UnregisterRepo(ctx context.Context, name string) (bool, error)

	// GetRepo returns the repository with the given name, or nil if absent.
	GetRepo(ctx context.Context, name string) (*RepoInfo, error)

	// ListRepos returns all repositories ordered by name.
	ListRepos(ctx context.Context) ([]RepoInfo, error)

	// Endpoint operations

	// GetEndpoints returns the stored endpoints of a repository ordered by method, path.
	GetEndpoints(ctx context.Context, repo string) ([]Endpoint, error)

	// SaveEndpoints upserts endpoints and returns how many were written.
	SaveEndpoints(ctx context.Context, endpoints []Endpoint) (int, error)

	// DeleteEndpoints removes all endpoints of a repository and returns the count.
	DeleteEndpoints(ctx context.Context, repo string) (int, error)

	// ReplaceEndpoints atomically swaps a repository's endpoint set.
	ReplaceEndpoints(ctx context.Context, repo string, endpoints []Endpoint) (int, error)

	// SearchEndpoints matches query against endpoint paths and summaries.
	SearchEndpoints(ctx context.Context, query string, limit int) ([]Endpoint, error)

	// Consumer operations

	// AddConsumer inserts or replaces a consumer edge.
	AddConsumer(ctx context.Context, c Consumer) error

	// RemoveConsumer deletes a consumer edge. Returns false if it did not exist.
	RemoveConsumer(ctx context.Context, consumerRepo, producerRepo, method, path string) (bool, error)

	// GetConsumersOf returns consumers of one specific endpoint.
	GetConsumersOf(ctx context.Context, producerRepo, method, path string) ([]Consumer, error)

	// GetConsumersOfRepo returns consumers of any endpoint of a repository.
	GetConsumersOfRepo(ctx context.Context, producerRepo string) ([]Consumer, error)

	// ListConsumers returns consumer edges matching the filter.
	ListConsumers(ctx context.Context, filter ConsumerFilter) ([]Consumer, error)

	// Version and report history

	// SaveVersion appends a contract version.
	SaveVersion(ctx context.Context, v ContractVersion) error

	// GetLatestVersion returns the newest version of a repository, or nil.
	GetLatestVersion(ctx context.Context, repo string) (*ContractVersion, error)

	// ListVersions returns versions newest first.
	ListVersions(ctx context.Context, repo string, limit int) ([]ContractVersion, error)

	// SaveReport appends an impact report.
	SaveReport(ctx context.Context, r ImpactReport) error

	// GetReport returns a report by ID, or nil.
	GetReport(ctx context.Context, reportID string) (*ImpactReport, error)

	// ListReports returns reports of a repository newest first.
	ListReports(ctx context.Context, repo string, limit int) ([]ImpactReport, error)

	// Feedback and audit

	SaveFeedback(ctx context.Context, fb Feedback) error
	ListFeedback(ctx context.Context, limit int) ([]Feedback, error)
	LogAudit(ctx context.Context, entry AuditEntry) error
	QueryAudit(ctx context.Context, toolName string, since time.Time, limit int) ([]AuditEntry, error)

	// Close closes the underlying connection.
	Close() error
}
