package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"merovingian/internal/contract"
	"merovingian/internal/database/migrations"
	"merovingian/internal/database/sqlc"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements contract.Store using SQLite.
type SQLiteDatabase struct {
	db      *sql.DB
	queries *sqlc.Queries
	path    string
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{
		db:      db,
		queries: sqlc.New(db),
		path:    path,
	}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{
		db:      db,
		queries: sqlc.New(db),
		path:    "",
	}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every pooled connection to ":memory:" would otherwise see its own empty database.
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Repository operations

func (s *SQLiteDatabase) RegisterRepo(ctx context.Context, repo contract.RepoInfo) error {
	err := s.queries.UpsertRepo(ctx, sqlc.UpsertRepoParams{
		Name:         repo.Name,
		Path:         repo.Path,
		ContractType: string(repo.ContractType),
		RegisteredAt: repo.RegisteredAt,
	})
	if err != nil {
		return fmt.Errorf("registering repo: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) UnregisterRepo(ctx context.Context, name string) (bool, error) {
	// Endpoints, versions and reports go with the repo via ON DELETE CASCADE.
	n, err := s.queries.DeleteRepo(ctx, name)
	if err != nil {
		return false, fmt.Errorf("deleting repo: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteDatabase) GetRepo(ctx context.Context, name string) (*contract.RepoInfo, error) {
	row, err := s.queries.GetRepo(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("getting repo: %w", err)
	}
	repo := repoFromRow(row)
	return &repo, nil
}

func (s *SQLiteDatabase) ListRepos(ctx context.Context) ([]contract.RepoInfo, error) {
	rows, err := s.queries.ListRepos(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing repos: %w", err)
	}
	repos := make([]contract.RepoInfo, len(rows))
	for i, row := range rows {
		repos[i] = repoFromRow(row)
	}
	return repos, nil
}

// Endpoint operations

func (s *SQLiteDatabase) GetEndpoints(ctx context.Context, repo string) ([]contract.Endpoint, error) {
	rows, err := s.queries.GetEndpointsByRepo(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("getting endpoints: %w", err)
	}
	return endpointsFromRows(rows), nil
}

func (s *SQLiteDatabase) SaveEndpoints(ctx context.Context, endpoints []contract.Endpoint) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	n, err := saveEndpoints(ctx, s.queries.WithTx(tx), endpoints)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return n, nil
}

func (s *SQLiteDatabase) DeleteEndpoints(ctx context.Context, repo string) (int, error) {
	n, err := s.queries.DeleteEndpointsByRepo(ctx, repo)
	if err != nil {
		return 0, fmt.Errorf("deleting endpoints: %w", err)
	}
	return int(n), nil
}

// ReplaceEndpoints deletes and re-inserts a repository's endpoints in one
// transaction, so readers never observe a partially written set.
func (s *SQLiteDatabase) ReplaceEndpoints(ctx context.Context, repo string, endpoints []contract.Endpoint) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	if _, err := qtx.DeleteEndpointsByRepo(ctx, repo); err != nil {
		return 0, fmt.Errorf("deleting endpoints: %w", err)
	}

	for _, ep := range endpoints {
		if ep.RepoName != repo {
			return 0, fmt.Errorf("endpoint %s belongs to %q, not %q", ep.Key(), ep.RepoName, repo)
		}
	}

	n, err := saveEndpoints(ctx, qtx, endpoints)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return n, nil
}

func saveEndpoints(ctx context.Context, q *sqlc.Queries, endpoints []contract.Endpoint) (int, error) {
	for _, ep := range endpoints {
		err := q.UpsertEndpoint(ctx, sqlc.UpsertEndpointParams{
			RepoName:       ep.RepoName,
			Method:         ep.Method,
			Path:           ep.Path,
			Summary:        ep.Summary,
			RequestSchema:  ep.RequestSchema,
			ResponseSchema: ep.ResponseSchema,
		})
		if err != nil {
			return 0, fmt.Errorf("saving endpoint %s: %w", ep.Key(), err)
		}
	}
	return len(endpoints), nil
}

func (s *SQLiteDatabase) SearchEndpoints(ctx context.Context, query string, limit int) ([]contract.Endpoint, error) {
	rows, err := s.queries.SearchEndpoints(ctx, sqlc.SearchEndpointsParams{
		Pattern: "%" + escapeLike(query) + "%",
		Limit:   sqlLimit(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("searching endpoints: %w", err)
	}
	return endpointsFromRows(rows), nil
}

// Consumer operations

func (s *SQLiteDatabase) AddConsumer(ctx context.Context, c contract.Consumer) error {
	err := s.queries.UpsertConsumer(ctx, sqlc.UpsertConsumerParams{
		ConsumerRepo:   c.ConsumerRepo,
		ProducerRepo:   c.ProducerRepo,
		EndpointMethod: c.EndpointMethod,
		EndpointPath:   c.EndpointPath,
		RegisteredAt:   c.RegisteredAt,
	})
	if err != nil {
		return fmt.Errorf("adding consumer: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) RemoveConsumer(ctx context.Context, consumerRepo, producerRepo, method, path string) (bool, error) {
	n, err := s.queries.DeleteConsumer(ctx, sqlc.DeleteConsumerParams{
		ConsumerRepo:   consumerRepo,
		ProducerRepo:   producerRepo,
		EndpointMethod: method,
		EndpointPath:   path,
	})
	if err != nil {
		return false, fmt.Errorf("removing consumer: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteDatabase) GetConsumersOf(ctx context.Context, producerRepo, method, path string) ([]contract.Consumer, error) {
	rows, err := s.queries.GetConsumersOfEndpoint(ctx, sqlc.GetConsumersOfEndpointParams{
		ProducerRepo:   producerRepo,
		EndpointMethod: method,
		EndpointPath:   path,
	})
	if err != nil {
		return nil, fmt.Errorf("getting consumers of endpoint: %w", err)
	}
	return consumersFromRows(rows), nil
}

func (s *SQLiteDatabase) GetConsumersOfRepo(ctx context.Context, producerRepo string) ([]contract.Consumer, error) {
	rows, err := s.queries.GetConsumersOfRepo(ctx, producerRepo)
	if err != nil {
		return nil, fmt.Errorf("getting consumers of repo: %w", err)
	}
	return consumersFromRows(rows), nil
}

func (s *SQLiteDatabase) ListConsumers(ctx context.Context, filter contract.ConsumerFilter) ([]contract.Consumer, error) {
	rows, err := s.queries.ListConsumers(ctx, sqlc.ListConsumersParams{
		ProducerRepo:   filter.ProducerRepo,
		EndpointMethod: filter.Method,
		EndpointPath:   filter.Path,
	})
	if err != nil {
		return nil, fmt.Errorf("listing consumers: %w", err)
	}
	return consumersFromRows(rows), nil
}

// Version and report history

func (s *SQLiteDatabase) SaveVersion(ctx context.Context, v contract.ContractVersion) error {
	endpoints := v.Endpoints
	if endpoints == nil {
		endpoints = []contract.Endpoint{}
	}
	data, err := json.Marshal(endpoints)
	if err != nil {
		return fmt.Errorf("encoding version endpoints: %w", err)
	}

	err = s.queries.InsertContractVersion(ctx, sqlc.InsertContractVersionParams{
		VersionID:  v.VersionID,
		RepoName:   v.RepoName,
		SpecHash:   v.SpecHash,
		Endpoints:  string(data),
		CapturedAt: v.CapturedAt,
	})
	if err != nil {
		return fmt.Errorf("saving version: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) GetLatestVersion(ctx context.Context, repo string) (*contract.ContractVersion, error) {
	row, err := s.queries.GetLatestContractVersion(ctx, repo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("getting latest version: %w", err)
	}
	v, err := versionFromRow(row)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *SQLiteDatabase) ListVersions(ctx context.Context, repo string, limit int) ([]contract.ContractVersion, error) {
	rows, err := s.queries.ListContractVersions(ctx, sqlc.ListContractVersionsParams{
		RepoName: repo,
		Limit:    sqlLimit(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}

	versions := make([]contract.ContractVersion, 0, len(rows))
	for _, row := range rows {
		v, err := versionFromRow(row)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, nil
}

func (s *SQLiteDatabase) SaveReport(ctx context.Context, r contract.ImpactReport) error {
	breaking, err := encodeChanges(r.BreakingChanges)
	if err != nil {
		return err
	}
	nonBreaking, err := encodeChanges(r.NonBreakingChanges)
	if err != nil {
		return err
	}

	err = s.queries.InsertImpactReport(ctx, sqlc.InsertImpactReportParams{
		ReportID:           r.ReportID,
		RepoName:           r.RepoName,
		BreakingChanges:    breaking,
		NonBreakingChanges: nonBreaking,
		ConsumerCount:      int64(r.ConsumerCount),
		CreatedAt:          r.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) GetReport(ctx context.Context, reportID string) (*contract.ImpactReport, error) {
	row, err := s.queries.GetImpactReport(ctx, reportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("getting report: %w", err)
	}
	r, err := reportFromRow(row)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLiteDatabase) ListReports(ctx context.Context, repo string, limit int) ([]contract.ImpactReport, error) {
	rows, err := s.queries.ListImpactReports(ctx, sqlc.ListImpactReportsParams{
		RepoName: repo,
		Limit:    sqlLimit(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}

	reports := make([]contract.ImpactReport, 0, len(rows))
	for _, row := range rows {
		r, err := reportFromRow(row)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// Feedback and audit

func (s *SQLiteDatabase) SaveFeedback(ctx context.Context, fb contract.Feedback) error {
	err := s.queries.InsertFeedback(ctx, sqlc.InsertFeedbackParams{
		TargetID:   fb.TargetID,
		TargetType: string(fb.TargetType),
		Outcome:    string(fb.Outcome),
		Context:    fb.Context,
		CreatedAt:  fb.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("saving feedback: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListFeedback(ctx context.Context, limit int) ([]contract.Feedback, error) {
	rows, err := s.queries.ListFeedback(ctx, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("listing feedback: %w", err)
	}

	result := make([]contract.Feedback, len(rows))
	for i, row := range rows {
		result[i] = contract.Feedback{
			TargetID:   row.TargetID,
			TargetType: contract.TargetType(row.TargetType),
			Outcome:    contract.FeedbackOutcome(row.Outcome),
			Context:    row.Context,
			CreatedAt:  row.CreatedAt,
		}
	}
	return result, nil
}

// maxAuditSummary bounds the stored result summary.
const maxAuditSummary = 200

func (s *SQLiteDatabase) LogAudit(ctx context.Context, entry contract.AuditEntry) error {
	params := entry.Parameters
	if params == "" {
		params = "{}"
	}
	err := s.queries.InsertAuditEntry(ctx, sqlc.InsertAuditEntryParams{
		ToolName:      entry.ToolName,
		Parameters:    params,
		ResultSummary: truncate(entry.ResultSummary, maxAuditSummary),
		CreatedAt:     entry.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("logging audit entry: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) QueryAudit(ctx context.Context, toolName string, since time.Time, limit int) ([]contract.AuditEntry, error) {
	rows, err := s.queries.QueryAuditLog(ctx, sqlc.QueryAuditLogParams{
		ToolName: toolName,
		Since:    since.UTC(),
		Limit:    sqlLimit(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}

	result := make([]contract.AuditEntry, len(rows))
	for i, row := range rows {
		result[i] = contract.AuditEntry{
			ToolName:      row.ToolName,
			Parameters:    row.Parameters,
			ResultSummary: row.ResultSummary,
			CreatedAt:     row.CreatedAt,
		}
	}
	return result, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// MigrationStatus reports the applied and embedded schema versions.
func (s *SQLiteDatabase) MigrationStatus() (migrations.Status, error) {
	return migrations.ReadStatus(s.db)
}

// MigrateUp applies any pending schema migrations.
func (s *SQLiteDatabase) MigrateUp() error {
	return migrations.MigrateUp(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Row conversion helpers

func repoFromRow(row sqlc.Repo) contract.RepoInfo {
	return contract.RepoInfo{
		Name:         row.Name,
		Path:         row.Path,
		ContractType: contract.ContractType(row.ContractType),
		RegisteredAt: row.RegisteredAt,
	}
}

func endpointsFromRows(rows []sqlc.Endpoint) []contract.Endpoint {
	eps := make([]contract.Endpoint, len(rows))
	for i, row := range rows {
		eps[i] = contract.Endpoint{
			RepoName:       row.RepoName,
			Method:         row.Method,
			Path:           row.Path,
			Summary:        row.Summary,
			RequestSchema:  row.RequestSchema,
			ResponseSchema: row.ResponseSchema,
		}
	}
	return eps
}

func consumersFromRows(rows []sqlc.Consumer) []contract.Consumer {
	cs := make([]contract.Consumer, len(rows))
	for i, row := range rows {
		cs[i] = contract.Consumer{
			ConsumerRepo:   row.ConsumerRepo,
			ProducerRepo:   row.ProducerRepo,
			EndpointMethod: row.EndpointMethod,
			EndpointPath:   row.EndpointPath,
			RegisteredAt:   row.RegisteredAt,
		}
	}
	return cs
}

func versionFromRow(row sqlc.ContractVersion) (contract.ContractVersion, error) {
	var eps []contract.Endpoint
	if err := json.Unmarshal([]byte(row.Endpoints), &eps); err != nil {
		return contract.ContractVersion{}, fmt.Errorf("decoding endpoints of version %s: %w", row.VersionID, err)
	}
	return contract.ContractVersion{
		RepoName:   row.RepoName,
		VersionID:  row.VersionID,
		SpecHash:   row.SpecHash,
		Endpoints:  eps,
		CapturedAt: row.CapturedAt,
	}, nil
}

func reportFromRow(row sqlc.ImpactReport) (contract.ImpactReport, error) {
	var breaking, nonBreaking []contract.ContractChange
	if err := json.Unmarshal([]byte(row.BreakingChanges), &breaking); err != nil {
		return contract.ImpactReport{}, fmt.Errorf("decoding breaking changes of report %s: %w", row.ReportID, err)
	}
	if err := json.Unmarshal([]byte(row.NonBreakingChanges), &nonBreaking); err != nil {
		return contract.ImpactReport{}, fmt.Errorf("decoding non-breaking changes of report %s: %w", row.ReportID, err)
	}
	return contract.ImpactReport{
		ReportID:           row.ReportID,
		RepoName:           row.RepoName,
		BreakingChanges:    breaking,
		NonBreakingChanges: nonBreaking,
		ConsumerCount:      int(row.ConsumerCount),
		CreatedAt:          row.CreatedAt,
	}, nil
}

func encodeChanges(changes []contract.ContractChange) (string, error) {
	if changes == nil {
		changes = []contract.ContractChange{}
	}
	data, err := json.Marshal(changes)
	if err != nil {
		return "", fmt.Errorf("encoding changes: %w", err)
	}
	return string(data), nil
}

// sqlLimit maps a non-positive limit to SQLite's "no limit".
func sqlLimit(limit int) int64 {
	if limit <= 0 {
		return -1
	}
	return int64(limit)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Compile-time check that SQLiteDatabase implements contract.Store
var _ contract.Store = (*SQLiteDatabase)(nil)
