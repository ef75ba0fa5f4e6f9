package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Environment variables that override values from the config file.
const (
	EnvDBName            = "MEROVINGIAN_DB_NAME"
	EnvDefaultQueryLimit = "MEROVINGIAN_DEFAULT_QUERY_LIMIT"
	EnvLogLevel          = "MEROVINGIAN_LOG_LEVEL"

	// Static credentials for the s3 archive. When unset, the AWS default
	// credential chain is used.
	EnvS3AccessKey = "MEROVINGIAN_S3_ACCESS_KEY"
	EnvS3SecretKey = "MEROVINGIAN_S3_SECRET_KEY"
)

// Built-in defaults applied to any setting left empty by the file and environment.
const (
	DefaultDBName     = "merovingian.db"
	DefaultQueryLimit = 50
	DefaultLogLevel   = "info"

	DefaultNotifySubject = "merovingian.impact"
)

var (
	DefaultOpenAPIPatterns = []string{"openapi.yaml", "openapi.json", "swagger.yaml", "swagger.json"}
	DefaultModelScanDirs   = []string{"src", "app", "lib"}
	DefaultIgnore          = []string{".git", "node_modules", ".venv", "__pycache__"}
)

// Config represents the main configuration for merovingian.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	LogLevel   string           `toml:"log_level"` // debug, info, warn or error
	Database   DatabaseConfig   `toml:"database"`
	Scanner    ScannerConfig    `toml:"scanner"`
	Query      QueryConfig      `toml:"query"`
	Archive    ArchiveConfig    `toml:"archive"`
	Encryption EncryptionConfig `toml:"encryption"`
	Notify     NotifyConfig     `toml:"notify"`
}

// DatabaseConfig represents configuration for the contract database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
	DBName  string `toml:"db_name,omitempty"`  // file name inside DataDir
}

// ScannerConfig controls where contract sources are looked for.
type ScannerConfig struct {
	OpenAPIPatterns []string `toml:"openapi_patterns"`
	ModelScanDirs   []string `toml:"pydantic_scan_dirs"`
	Ignore          []string `toml:"ignore"`
}

// QueryConfig holds limits for listing commands.
type QueryConfig struct {
	DefaultLimit int `toml:"default_query_limit"`
}

// ArchiveConfig represents configuration for the contract snapshot archive.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type ArchiveConfig struct {
	Type      string `toml:"type"` // "none", "memory", "s3", or "filesystem"
	Encrypted bool   `toml:"encrypted"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"` // S3-compatible service instead of AWS

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`
}

// EncryptionConfig holds paths to the age key pair used for archive encryption.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
	Armor          bool   `toml:"armor"` // PEM-style text output instead of binary
}

// NotifyConfig selects where impact events are published.
type NotifyConfig struct {
	Type      string `toml:"type"` // "none" or "nats"
	NATSURL   string `toml:"nats_url,omitempty"`
	Subject   string `toml:"subject,omitempty"`
	JetStream bool   `toml:"jetstream,omitempty"` // publish through JetStream and wait for the ack
}

// NewConfig creates a new Config rooted at baseDir with every default filled in.
func NewConfig(baseDir string) *Config {
	cfg := &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Archive: ArchiveConfig{Type: "none"},
		Encryption: EncryptionConfig{
			PublicKeyPath:  filepath.Join(baseDir, "keys", "merovingian.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "merovingian.key"),
		},
		Notify: NotifyConfig{Type: "none"},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every empty setting with its built-in default.
func (c *Config) ApplyDefaults() {
	if c.LogDir == "" && c.BaseDir != "" {
		c.LogDir = filepath.Join(c.BaseDir, "log")
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.DataDir == "" && c.BaseDir != "" {
		c.Database.DataDir = filepath.Join(c.BaseDir, "db")
	}
	if c.Database.DBName == "" {
		c.Database.DBName = DefaultDBName
	}
	if len(c.Scanner.OpenAPIPatterns) == 0 {
		c.Scanner.OpenAPIPatterns = append([]string(nil), DefaultOpenAPIPatterns...)
	}
	if len(c.Scanner.ModelScanDirs) == 0 {
		c.Scanner.ModelScanDirs = append([]string(nil), DefaultModelScanDirs...)
	}
	if c.Scanner.Ignore == nil {
		c.Scanner.Ignore = append([]string(nil), DefaultIgnore...)
	}
	if c.Query.DefaultLimit <= 0 {
		c.Query.DefaultLimit = DefaultQueryLimit
	}
	if c.Archive.Type == "" {
		c.Archive.Type = "none"
	}
	if c.Encryption.PublicKeyPath == "" && c.BaseDir != "" {
		c.Encryption.PublicKeyPath = filepath.Join(c.BaseDir, "keys", "merovingian.pub")
	}
	if c.Encryption.PrivateKeyPath == "" && c.BaseDir != "" {
		c.Encryption.PrivateKeyPath = filepath.Join(c.BaseDir, "keys", "merovingian.key")
	}
	if c.Notify.Type == "" {
		c.Notify.Type = "none"
	}
	if c.Notify.Subject == "" {
		c.Notify.Subject = DefaultNotifySubject
	}
}

// ApplyEnv overrides settings from MEROVINGIAN_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvDBName); v != "" {
		c.Database.DBName = v
	}
	if v := os.Getenv(EnvDefaultQueryLimit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvDefaultQueryLimit, v, err)
		}
		c.Query.DefaultLimit = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Load resolves the effective configuration: the file at path if it exists,
// then environment overrides, then defaults rooted at baseDir.
func Load(path, baseDir string) (*Config, error) {
	cfg, err := ReadFromFile(path)
	switch {
	case err == nil:
		if cfg.BaseDir == "" {
			cfg.BaseDir = baseDir
		}
	case errors.Is(err, fs.ErrNotExist):
		cfg = NewConfig(baseDir)
	default:
		return nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// DBPath returns the location of the sqlite database file.
func (c *Config) DBPath() string {
	return filepath.Join(c.Database.DataDir, c.Database.DBName)
}

// writeToFile writes a Config to the specified file path.
// This is an internal helper and should not be exported.
func writeToFile(path string, cfg *Config) error {
	// Ensure the directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
