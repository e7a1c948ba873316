package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ZestyBackup/internal/config"
	"ZestyBackup/internal/execx"
)

// Item describes one remote object.
type Item struct {
	Key          string
	Size         uint64
	LastModified time.Time
}

// Provider is the remote storage backend a backup is shipped to.
// Keys are slash-separated object names, not filesystem paths.
type Provider interface {
	Upload(ctx context.Context, key, localPath string) error
	Download(ctx context.Context, key, outputPath string) error
	List(ctx context.Context, prefix string) ([]Item, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// New builds the provider named in cfg. Provider names are matched
// case-insensitively and several S3-compatible vendors are aliases that
// only differ in the derived endpoint.
func New(ctx context.Context, cfg *config.StorageConfig, runner execx.Runner, log *zap.Logger) (Provider, error) {
	if cfg.Provider == "" {
		return nil, fmt.Errorf("storage: provider is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}

	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch name {
	case "s3", "aws", "contabo", "digitalocean", "wasabi", "minio", "r2":
		endpoint, err := s3Endpoint(name, cfg)
		if err != nil {
			return nil, err
		}
		return newS3(ctx, cfg, endpoint)
	case "gcs", "google":
		return newGCS(ctx, cfg)
	case "azure":
		return newAzure(cfg)
	case "b2", "backblaze":
		return newB2(ctx, cfg)
	case "googledrive", "gdrive":
		return newGoogleDrive(cfg)
	case "onedrive":
		return newOneDrive(cfg)
	case "dropbox":
		return newDropbox(cfg)
	case "box":
		return newBox(cfg)
	case "pcloud":
		return newPCloud(cfg)
	case "mega":
		return newMega(ctx, cfg, runner, log)
	default:
		return nil, fmt.Errorf("storage: unknown provider %q", cfg.Provider)
	}
}

func s3Endpoint(name string, cfg *config.StorageConfig) (string, error) {
	region := cfg.Region
	if region == "" {
		region = config.DefaultRegion
	}
	switch name {
	case "aws":
		return fmt.Sprintf("https://s3.%s.amazonaws.com", region), nil
	case "digitalocean":
		return fmt.Sprintf("https://%s.digitaloceanspaces.com", region), nil
	case "wasabi":
		return fmt.Sprintf("https://s3.%s.wasabisys.com", region), nil
	case "r2":
		if cfg.AccountID == "" {
			return "", fmt.Errorf("storage: r2 requires account_id")
		}
		return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID), nil
	default:
		return cfg.Endpoint, nil
	}
}
