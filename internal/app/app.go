// Package app wires configuration, storage, scanning, archiving and
// notification into a single object the CLI drives one operation at a time.
package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"merovingian/internal/config"
	"merovingian/internal/contract"
	"merovingian/internal/database"
	"merovingian/internal/database/migrations"
	"merovingian/internal/encryption"
	"merovingian/internal/notify"
	"merovingian/internal/scanner"
	"merovingian/internal/vault"
)

// ErrNoArchive is returned by archive operations when archive.type is "none".
var ErrNoArchive = errors.New("no snapshot archive configured")

// MerovingianApp is the application layer between the CLI and contract.Service.
// It constructs all dependencies from config, records every operation in the
// audit log and exports assessed versions to the snapshot archive.
type MerovingianApp struct {
	cfg       *config.Config
	db        *database.SQLiteDatabase
	archive   contract.Archive // nil when archiving is disabled
	encryptor contract.Encryptor
	notifier  notify.Notifier
	service   *contract.Service
	logger    contract.Logger
	clock     contract.Clock
	op        *Operation
	logFile   *os.File
}

// NewMerovingianApp creates a fully wired app from the given config.
// op is the audit record of the CLI command being run.
// The database is migrated to the latest schema before use.
// The caller must call Close when done.
func NewMerovingianApp(ctx context.Context, cfg *config.Config, op *Operation) (*MerovingianApp, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	archive, err := vault.NewArchiveFromConfig(ctx, cfg.Archive)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating archive: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	notifier, err := notify.NewNotifierFromConfig(cfg.Notify)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating notifier: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	l, logFile, err := newLogger(cfg.LogDir, opID, level)
	if err != nil {
		notifier.Close()
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: l}

	clock := contract.RealClock{}
	sc := scanner.New(cfg.Scanner, logger)
	svc := contract.NewService(db, sc, logger, clock, contract.UUIDGenerator{})

	return &MerovingianApp{
		cfg:       cfg,
		db:        db,
		archive:   archive,
		encryptor: enc,
		notifier:  notifier,
		service:   svc,
		logger:    logger,
		clock:     clock,
		op:        op,
		logFile:   logFile,
	}, nil
}

// record stores the outcome of the current operation and passes err through.
func (a *MerovingianApp) record(err error, format string, args ...any) error {
	if err != nil {
		a.op.Fail(err)
		return err
	}
	a.op.Succeed(fmt.Sprintf(format, args...))
	return nil
}

// limit falls back to the configured default for non-positive values.
func (a *MerovingianApp) limit(n int) int {
	if n <= 0 {
		return a.cfg.Query.DefaultLimit
	}
	return n
}

// RegisterRepo resolves rawPath and registers it under name.
// contractType is "openapi", "pydantic" or "" to detect both.
func (a *MerovingianApp) RegisterRepo(ctx context.Context, name, rawPath, contractType string) (*contract.RepoInfo, error) {
	ctype, err := contract.ParseContractType(contractType)
	if err != nil {
		return nil, a.record(err, "")
	}
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, a.record(fmt.Errorf("resolving path: %w", err), "")
	}
	repo, err := a.service.RegisterRepo(ctx, name, absPath, ctype)
	return repo, a.record(err, "registered %s at %s", name, absPath)
}

func (a *MerovingianApp) UnregisterRepo(ctx context.Context, name string) error {
	return a.record(a.service.UnregisterRepo(ctx, name), "unregistered %s", name)
}

func (a *MerovingianApp) ListRepos(ctx context.Context) ([]contract.RepoInfo, error) {
	repos, err := a.service.ListRepos(ctx)
	return repos, a.record(err, "%d repositories", len(repos))
}

// Scan re-extracts a repository's endpoints without recording a version.
func (a *MerovingianApp) Scan(ctx context.Context, name string) ([]contract.Endpoint, string, error) {
	eps, hash, err := a.service.Scan(ctx, name)
	return eps, hash, a.record(err, "%d endpoints, hash %s", len(eps), hash)
}

func (a *MerovingianApp) RegisterConsumer(ctx context.Context, consumerRepo, producerRepo, method, path string) (*contract.Consumer, error) {
	c, err := a.service.RegisterConsumer(ctx, consumerRepo, producerRepo, method, path)
	return c, a.record(err, "%s consumes %s %s %s", consumerRepo, producerRepo, method, path)
}

func (a *MerovingianApp) RemoveConsumer(ctx context.Context, consumerRepo, producerRepo, method, path string) (bool, error) {
	removed, err := a.service.RemoveConsumer(ctx, consumerRepo, producerRepo, method, path)
	return removed, a.record(err, "removed=%t", removed)
}

func (a *MerovingianApp) ListConsumers(ctx context.Context, filter contract.ConsumerFilter) ([]contract.Consumer, error) {
	cs, err := a.service.ListConsumers(ctx, filter)
	return cs, a.record(err, "%d consumers", len(cs))
}

func (a *MerovingianApp) DependencyGraph(ctx context.Context) (map[string]contract.GraphNode, error) {
	g, err := a.service.DependencyGraph(ctx)
	return g, a.record(err, "%d repositories in graph", len(g))
}

// AssessImpact runs a full assessment, then exports the new version to the
// archive and publishes an event when something broke. Archive and notify
// failures are logged; the assessment itself has already been persisted.
func (a *MerovingianApp) AssessImpact(ctx context.Context, name string) (*contract.ImpactReport, error) {
	report, version, err := a.service.AssessImpact(ctx, name)
	if err != nil {
		return nil, a.record(err, "")
	}

	if err := a.archiveVersion(version); err != nil {
		a.logger.Warn("archiving contract version failed", "repo", name, "version_id", version.VersionID, "error", err)
	}
	if len(report.BreakingChanges) > 0 {
		if err := a.notifier.NotifyImpact(ctx, contract.NewImpactEvent(report)); err != nil {
			a.logger.Warn("publishing impact event failed", "repo", name, "report_id", report.ReportID, "error", err)
		}
	}

	return report, a.record(nil, "report %s: %d breaking, %d non-breaking, %d consumers",
		report.ReportID, len(report.BreakingChanges), len(report.NonBreakingChanges), report.ConsumerCount)
}

// CheckBreaking lists the breaking changes a re-scan would produce without
// persisting anything.
func (a *MerovingianApp) CheckBreaking(ctx context.Context, name string) ([]contract.ContractChange, error) {
	changes, err := a.service.CheckBreaking(ctx, name)
	return changes, a.record(err, "%d breaking changes", len(changes))
}

func (a *MerovingianApp) ListVersions(ctx context.Context, name string, limit int) ([]contract.ContractVersion, error) {
	vs, err := a.service.ListVersions(ctx, name, a.limit(limit))
	return vs, a.record(err, "%d versions", len(vs))
}

func (a *MerovingianApp) ListReports(ctx context.Context, name string, limit int) ([]contract.ImpactReport, error) {
	rs, err := a.service.ListReports(ctx, name, a.limit(limit))
	return rs, a.record(err, "%d reports", len(rs))
}

// GetReport returns the report with the given ID, or an error if it does not exist.
func (a *MerovingianApp) GetReport(ctx context.Context, reportID string) (*contract.ImpactReport, error) {
	r, err := a.service.GetReport(ctx, reportID)
	if err == nil && r == nil {
		err = fmt.Errorf("report %s not found", reportID)
	}
	return r, a.record(err, "report %s", reportID)
}

func (a *MerovingianApp) SearchEndpoints(ctx context.Context, query string, limit int) ([]contract.Endpoint, error) {
	eps, err := a.service.SearchEndpoints(ctx, query, a.limit(limit))
	return eps, a.record(err, "%d endpoints match %q", len(eps), query)
}

// RecordFeedback validates target and outcome before storing the verdict.
func (a *MerovingianApp) RecordFeedback(ctx context.Context, targetID, target, outcome, note string) (*contract.Feedback, error) {
	tt, fo, err := contract.ParseFeedback(target, outcome)
	if err != nil {
		return nil, a.record(err, "")
	}
	fb, err := a.service.RecordFeedback(ctx, targetID, tt, fo, note)
	return fb, a.record(err, "%s %s %s", target, targetID, outcome)
}

func (a *MerovingianApp) ListFeedback(ctx context.Context, limit int) ([]contract.Feedback, error) {
	fbs, err := a.service.ListFeedback(ctx, a.limit(limit))
	return fbs, a.record(err, "%d feedback entries", len(fbs))
}

// QueryAudit lists recorded operations. The current operation is written on
// Close and so never appears in its own result.
func (a *MerovingianApp) QueryAudit(ctx context.Context, toolName string, since time.Time, limit int) ([]contract.AuditEntry, error) {
	entries, err := a.service.QueryAudit(ctx, toolName, since, a.limit(limit))
	return entries, a.record(err, "%d audit entries", len(entries))
}

// ArchiveEncrypted reports whether archived snapshots are sealed and so need
// a passphrase to read back.
func (a *MerovingianApp) ArchiveEncrypted() bool {
	return a.cfg.Archive.Encrypted
}

// ArchivedSnapshot writes an archived contract version of repo to w.
// An empty versionID selects the latest snapshot. passphrase unlocks the
// private key when the archive is encrypted. Returns the version written.
func (a *MerovingianApp) ArchivedSnapshot(repo, versionID, passphrase string, w io.Writer) (string, error) {
	if a.archive == nil {
		return "", a.record(ErrNoArchive, "")
	}

	if versionID == "" {
		latest, err := a.archive.LatestSnapshot(repo)
		if err != nil {
			return "", a.record(fmt.Errorf("finding latest snapshot: %w", err), "")
		}
		if latest == "" {
			return "", a.record(fmt.Errorf("no archived snapshots for %s", repo), "")
		}
		versionID = latest
	}

	if !a.cfg.Archive.Encrypted {
		err := a.archive.GetSnapshot(repo, versionID, w)
		return versionID, a.record(err, "snapshot %s/%s", repo, versionID)
	}

	dc, err := a.encryptor.Unlock(passphrase)
	if err != nil {
		return "", a.record(fmt.Errorf("unlocking key: %w", err), "")
	}
	var sealed bytes.Buffer
	if err := a.archive.GetSnapshot(repo, versionID, &sealed); err != nil {
		return "", a.record(err, "")
	}
	if err := dc.Decrypt(&sealed, w); err != nil {
		return "", a.record(fmt.Errorf("decrypting snapshot: %w", err), "")
	}
	return versionID, a.record(nil, "snapshot %s/%s (decrypted)", repo, versionID)
}

// archiveVersion exports v as JSON, sealed when archive encryption is on.
func (a *MerovingianApp) archiveVersion(v *contract.ContractVersion) error {
	if a.archive == nil {
		return nil
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding contract version: %w", err)
	}

	if a.cfg.Archive.Encrypted {
		if !a.encryptor.IsConfigured() {
			return errors.New("archive encryption is enabled but no keys exist (run keys init)")
		}
		var sealed bytes.Buffer
		if err := a.encryptor.Encrypt(bytes.NewReader(data), &sealed); err != nil {
			return fmt.Errorf("encrypting contract version: %w", err)
		}
		data = sealed.Bytes()
	}

	if err := a.archive.PutSnapshot(v.RepoName, v.VersionID, bytes.NewReader(data), int64(len(data))); err != nil {
		return fmt.Errorf("storing snapshot: %w", err)
	}
	a.logger.Info("contract version archived", "repo", v.RepoName, "version_id", v.VersionID, "bytes", len(data))
	return nil
}

// InitKeys generates the archive key pair, protecting the private key with passphrase.
func (a *MerovingianApp) InitKeys(passphrase string) error {
	err := a.encryptor.Setup(passphrase)
	return a.record(err, "archive keys created")
}

// ValidateArchive checks that the configured archive is reachable.
func (a *MerovingianApp) ValidateArchive() error {
	if a.archive == nil {
		return a.record(ErrNoArchive, "")
	}
	return a.record(a.archive.ValidateSetup(), "archive %s reachable", a.cfg.Archive.Type)
}

// MigrationStatus reports the schema version of the open database.
func (a *MerovingianApp) MigrationStatus() (migrations.Status, error) {
	st, err := a.db.MigrationStatus()
	return st, a.record(err, "schema version %d of %d", st.Current, st.Latest)
}

// BackupDatabase writes a consistent copy of the database to rawDest.
func (a *MerovingianApp) BackupDatabase(rawDest string) (string, error) {
	dest, err := filepath.Abs(rawDest)
	if err != nil {
		return "", a.record(fmt.Errorf("resolving path: %w", err), "")
	}
	if _, err := os.Stat(dest); err == nil {
		return "", a.record(fmt.Errorf("%s already exists", dest), "")
	}
	return dest, a.record(a.db.BackupTo(dest), "database copied to %s", dest)
}

// Close writes the operation to the audit log and releases every resource.
// The first error encountered is returned.
func (a *MerovingianApp) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if err := a.db.LogAudit(context.Background(), a.op.Entry(a.clock.Now())); err != nil {
		keep(fmt.Errorf("writing audit entry: %w", err))
	}
	if err := a.notifier.Close(); err != nil {
		keep(fmt.Errorf("closing notifier: %w", err))
	}
	if err := a.db.Close(); err != nil {
		keep(fmt.Errorf("closing database: %w", err))
	}
	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
