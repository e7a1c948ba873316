package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"ZestyBackup/internal/config"
)

type azureProvider struct {
	client    *azblob.Client
	container string
}

func newAzure(cfg *config.StorageConfig) (*azureProvider, error) {
	if cfg.AccountName == "" {
		return nil, fmt.Errorf("storage: azure requires account_name")
	}
	if cfg.AccountKey == "" {
		return nil, fmt.Errorf("storage: azure requires account_key or AZURE_STORAGE_ACCOUNT_KEY")
	}
	cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("storage: azure credentials: %w", err)
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: azure client: %w", err)
	}
	return &azureProvider{client: client, container: cfg.Bucket}, nil
}

func (p *azureProvider) Bucket() string { return p.container }

func (p *azureProvider) Upload(ctx context.Context, key, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()
	if _, err := p.client.UploadFile(ctx, p.container, key, f, nil); err != nil {
		return fmt.Errorf("azure upload %s: %w", key, err)
	}
	return nil
}

func (p *azureProvider) Download(ctx context.Context, key, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := p.client.DownloadFile(ctx, p.container, key, f, nil); err != nil {
		return fmt.Errorf("azure download %s: %w", key, err)
	}
	return nil
}

func (p *azureProvider) List(ctx context.Context, prefix string) ([]Item, error) {
	pager := p.client.NewListBlobsFlatPager(p.container, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})
	var items []Item
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("azure list: %w", err)
		}
		for _, blob := range page.Segment.BlobItems {
			if blob.Name == nil {
				continue
			}
			item := Item{Key: *blob.Name}
			if blob.Properties != nil {
				if blob.Properties.ContentLength != nil {
					item.Size = uint64(*blob.Properties.ContentLength)
				}
				if blob.Properties.LastModified != nil {
					item.LastModified = *blob.Properties.LastModified
				}
			}
			items = append(items, item)
		}
	}
	return items, nil
}

func (p *azureProvider) Delete(ctx context.Context, key string) error {
	if _, err := p.client.DeleteBlob(ctx, p.container, key, nil); err != nil {
		return fmt.Errorf("azure delete %s: %w", key, err)
	}
	return nil
}
