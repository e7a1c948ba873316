package storage

import (
	"context"
	"fmt"
	"io"
	"os"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"ZestyBackup/internal/config"
)

type gcsProvider struct {
	client *gcs.Client
	bucket string
}

func newGCS(ctx context.Context, cfg *config.StorageConfig) (*gcsProvider, error) {
	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: gcs client: %w", err)
	}
	return &gcsProvider{client: client, bucket: cfg.Bucket}, nil
}

func (p *gcsProvider) Bucket() string { return p.bucket }

func (p *gcsProvider) Upload(ctx context.Context, key, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	w := p.client.Bucket(p.bucket).Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return fmt.Errorf("gcs upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs upload %s: %w", key, err)
	}
	return nil
}

func (p *gcsProvider) Download(ctx context.Context, key, outputPath string) error {
	r, err := p.client.Bucket(p.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("gcs download %s: %w", key, err)
	}
	defer r.Close()

	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("gcs download %s: %w", key, err)
	}
	return nil
}

func (p *gcsProvider) List(ctx context.Context, prefix string) ([]Item, error) {
	it := p.client.Bucket(p.bucket).Objects(ctx, &gcs.Query{Prefix: prefix})
	var items []Item
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gcs list: %w", err)
		}
		items = append(items, Item{
			Key:          attrs.Name,
			Size:         uint64(attrs.Size),
			LastModified: attrs.Updated,
		})
	}
	return items, nil
}

func (p *gcsProvider) Delete(ctx context.Context, key string) error {
	if err := p.client.Bucket(p.bucket).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("gcs delete %s: %w", key, err)
	}
	return nil
}
