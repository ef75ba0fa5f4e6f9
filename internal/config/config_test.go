package config

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir: "/home/user/.local/share/merovingian",
		LogDir:  "/home/user/.local/share/merovingian/log",
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: "/home/user/.local/share/merovingian/db",
			DBName:  "contracts.db",
		},
		Scanner: ScannerConfig{
			OpenAPIPatterns: []string{"api.yaml"},
			ModelScanDirs:   []string{"service"},
			Ignore:          []string{".git", "vendor"},
		},
		Query: QueryConfig{DefaultLimit: 25},
		Archive: ArchiveConfig{
			Type:      "filesystem",
			Encrypted: true,
			FSRoot:    "/backup/contracts",
		},
		Encryption: EncryptionConfig{
			PublicKeyPath:  "/home/user/.local/share/merovingian/keys/merovingian.pub",
			PrivateKeyPath: "/home/user/.local/share/merovingian/keys/merovingian.key",
		},
		Notify: NotifyConfig{Type: "nats", NATSURL: "nats://localhost:4222", Subject: "contracts.impact"},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if got.Database != original.Database {
		t.Errorf("Database = %+v, want %+v", got.Database, original.Database)
	}
	if !slices.Equal(got.Scanner.OpenAPIPatterns, original.Scanner.OpenAPIPatterns) {
		t.Errorf("Scanner.OpenAPIPatterns = %v, want %v", got.Scanner.OpenAPIPatterns, original.Scanner.OpenAPIPatterns)
	}
	if !slices.Equal(got.Scanner.ModelScanDirs, original.Scanner.ModelScanDirs) {
		t.Errorf("Scanner.ModelScanDirs = %v, want %v", got.Scanner.ModelScanDirs, original.Scanner.ModelScanDirs)
	}
	if len(got.Scanner.Ignore) != 2 {
		t.Fatalf("len(Scanner.Ignore) = %d, want 2", len(got.Scanner.Ignore))
	}
	if got.Query.DefaultLimit != 25 {
		t.Errorf("Query.DefaultLimit = %d, want 25", got.Query.DefaultLimit)
	}
	if got.Archive != original.Archive {
		t.Errorf("Archive = %+v, want %+v", got.Archive, original.Archive)
	}
	if got.Encryption != original.Encryption {
		t.Errorf("Encryption = %+v, want %+v", got.Encryption, original.Encryption)
	}
	if got.Notify != original.Notify {
		t.Errorf("Notify = %+v, want %+v", got.Notify, original.Notify)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/merovingian")

	if cfg.BaseDir != "/data/merovingian" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/merovingian")
	}
	if cfg.LogDir != "/data/merovingian/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/merovingian/log")
	}
	if cfg.DBPath() != "/data/merovingian/db/merovingian.db" {
		t.Errorf("DBPath() = %q, want %q", cfg.DBPath(), "/data/merovingian/db/merovingian.db")
	}
	if cfg.Encryption.PublicKeyPath != "/data/merovingian/keys/merovingian.pub" {
		t.Errorf("Encryption.PublicKeyPath = %q", cfg.Encryption.PublicKeyPath)
	}
	if !slices.Equal(cfg.Scanner.OpenAPIPatterns, DefaultOpenAPIPatterns) {
		t.Errorf("Scanner.OpenAPIPatterns = %v, want %v", cfg.Scanner.OpenAPIPatterns, DefaultOpenAPIPatterns)
	}
	if !slices.Equal(cfg.Scanner.ModelScanDirs, []string{"src", "app", "lib"}) {
		t.Errorf("Scanner.ModelScanDirs = %v", cfg.Scanner.ModelScanDirs)
	}
	if cfg.Query.DefaultLimit != 50 {
		t.Errorf("Query.DefaultLimit = %d, want 50", cfg.Query.DefaultLimit)
	}
	if cfg.Archive.Type != "none" {
		t.Errorf("Archive.Type = %q, want none", cfg.Archive.Type)
	}
	if cfg.Notify.Type != "none" {
		t.Errorf("Notify.Type = %q, want none", cfg.Notify.Type)
	}
	if cfg.Notify.Subject != DefaultNotifySubject {
		t.Errorf("Notify.Subject = %q, want %q", cfg.Notify.Subject, DefaultNotifySubject)
	}
}

func TestApplyDefaults_DoesNotShareSlices(t *testing.T) {
	cfg := NewConfig("/data")
	cfg.Scanner.OpenAPIPatterns[0] = "changed.yaml"

	if DefaultOpenAPIPatterns[0] != "openapi.yaml" {
		t.Errorf("DefaultOpenAPIPatterns mutated through config: %v", DefaultOpenAPIPatterns)
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "merovingian.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "merovingian.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "merovingian.toml")
		cfg := NewConfig(dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want %q", got.Database.Type, "memory")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/merovingian.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		dir := t.TempDir()

		cfg, err := Load(filepath.Join(dir, "absent.toml"), dir)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.BaseDir != dir {
			t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, dir)
		}
		if cfg.Database.DBName != DefaultDBName {
			t.Errorf("Database.DBName = %q, want %q", cfg.Database.DBName, DefaultDBName)
		}
	})

	t.Run("file values are kept and gaps defaulted", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "merovingian.toml")
		content := "[query]\ndefault_query_limit = 100\n\n[scanner]\nopenapi_patterns = [\"api.yaml\"]\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path, dir)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Query.DefaultLimit != 100 {
			t.Errorf("Query.DefaultLimit = %d, want 100", cfg.Query.DefaultLimit)
		}
		if !slices.Equal(cfg.Scanner.OpenAPIPatterns, []string{"api.yaml"}) {
			t.Errorf("Scanner.OpenAPIPatterns = %v", cfg.Scanner.OpenAPIPatterns)
		}
		if !slices.Equal(cfg.Scanner.ModelScanDirs, DefaultModelScanDirs) {
			t.Errorf("Scanner.ModelScanDirs = %v, want defaults", cfg.Scanner.ModelScanDirs)
		}
		if cfg.Database.DataDir != filepath.Join(dir, "db") {
			t.Errorf("Database.DataDir = %q", cfg.Database.DataDir)
		}
		if cfg.Encryption.PrivateKeyPath != filepath.Join(dir, "keys", "merovingian.key") {
			t.Errorf("Encryption.PrivateKeyPath = %q", cfg.Encryption.PrivateKeyPath)
		}
		if cfg.LogLevel != DefaultLogLevel {
			t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, DefaultLogLevel)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "merovingian.toml")
		content := "[database]\ndb_name = \"file.db\"\n\n[query]\ndefault_query_limit = 100\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		t.Setenv(EnvDBName, "env.db")
		t.Setenv(EnvDefaultQueryLimit, "7")
		t.Setenv(EnvLogLevel, "debug")

		cfg, err := Load(path, dir)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Database.DBName != "env.db" {
			t.Errorf("Database.DBName = %q, want env.db", cfg.Database.DBName)
		}
		if cfg.Query.DefaultLimit != 7 {
			t.Errorf("Query.DefaultLimit = %d, want 7", cfg.Query.DefaultLimit)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
		}
	})

	t.Run("invalid limit in environment", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv(EnvDefaultQueryLimit, "many")

		if _, err := Load(filepath.Join(dir, "absent.toml"), dir); err == nil {
			t.Fatal("Load() expected error for non-numeric limit")
		}
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "merovingian.toml")
		if err := os.WriteFile(path, []byte("this is = = not toml"), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := Load(path, dir); err == nil {
			t.Fatal("Load() expected error for malformed file")
		}
	})
}
