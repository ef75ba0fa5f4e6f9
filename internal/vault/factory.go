package vault

import (
	"context"
	"fmt"
	"os"

	"merovingian/internal/config"
	"merovingian/internal/contract"
)

// NewArchiveFromConfig creates an Archive implementation based on the archive
// config type. Type "none" (or empty) disables archiving and returns nil.
func NewArchiveFromConfig(ctx context.Context, cfg config.ArchiveConfig) (contract.Archive, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryArchive(), nil
	case "s3":
		a, err := NewS3Archive(ctx, S3Options{
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: os.Getenv(config.EnvS3AccessKey),
			SecretKey: os.Getenv(config.EnvS3SecretKey),
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem archive requires fs_root to be set")
		}
		a, err := NewFileSystemArchive(cfg.FSRoot)
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown archive type: %s", cfg.Type)
	}
}
