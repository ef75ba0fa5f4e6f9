package vault

import (
	"context"
	"path/filepath"
	"testing"

	"merovingian/internal/config"
)

func TestNewArchiveFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ArchiveConfig
		wantErr bool
		wantNil bool
	}{
		{name: "none", cfg: config.ArchiveConfig{Type: "none"}, wantNil: true},
		{name: "empty type", cfg: config.ArchiveConfig{}, wantNil: true},
		{name: "memory", cfg: config.ArchiveConfig{Type: "memory"}},
		{
			name: "filesystem",
			cfg:  config.ArchiveConfig{Type: "filesystem", FSRoot: filepath.Join(t.TempDir(), "archive")},
		},
		{name: "filesystem without root", cfg: config.ArchiveConfig{Type: "filesystem"}, wantErr: true, wantNil: true},
		{name: "s3 without bucket", cfg: config.ArchiveConfig{Type: "s3"}, wantErr: true, wantNil: true},
		{name: "unknown archive type", cfg: config.ArchiveConfig{Type: "tape"}, wantErr: true, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewArchiveFromConfig(context.Background(), tt.cfg)

			if (err != nil) != tt.wantErr {
				t.Fatalf("NewArchiveFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if (got == nil) != tt.wantNil {
				t.Fatalf("NewArchiveFromConfig() returned nil = %v, wantNil %v", got == nil, tt.wantNil)
			}

			if got != nil {
				if err := got.ValidateSetup(); err != nil {
					t.Errorf("ValidateSetup() error = %v", err)
				}
			}
		})
	}
}

func TestNewS3Archive_ObjectKeys(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")

	a, err := NewS3Archive(context.Background(), S3Options{
		Bucket:    "contracts",
		Prefix:    "/merovingian/",
		Region:    "eu-west-1",
		Endpoint:  "http://localhost:9000",
		AccessKey: "key",
		SecretKey: "secret",
	})
	if err != nil {
		t.Fatalf("NewS3Archive() error = %v", err)
	}

	if got := a.objectKey("orders", "v1"); got != "merovingian/orders/v1" {
		t.Errorf("objectKey() = %q", got)
	}
	if got := a.objectKey("orders", latestName); got != "merovingian/orders/LATEST" {
		t.Errorf("latest key = %q", got)
	}
}

func TestNewS3Archive_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts S3Options
	}{
		{name: "missing bucket", opts: S3Options{Region: "us-east-1"}},
		{name: "access key without secret", opts: S3Options{Bucket: "b", Region: "us-east-1", AccessKey: "k"}},
		{name: "secret without access key", opts: S3Options{Bucket: "b", Region: "us-east-1", SecretKey: "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewS3Archive(context.Background(), tt.opts); err == nil {
				t.Error("NewS3Archive() succeeded")
			}
		})
	}
}
