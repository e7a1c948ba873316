package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"ZestyBackup/internal/config"
)

// oneDriveProvider talks to the Microsoft Graph drive API. Like Drive,
// it is flat: archives live by base name inside one folder.
type oneDriveProvider struct {
	httpClient *http.Client
	token      string
	folder     string
	bucket     string

	apiBase string
}

func newOneDrive(cfg *config.StorageConfig) (*oneDriveProvider, error) {
	if cfg.AccessKey == "" {
		return nil, fmt.Errorf("storage: onedrive requires access_key (OAuth token)")
	}
	folder := cfg.BucketID
	if folder != "" && !strings.HasPrefix(folder, "/") {
		folder = "/" + folder
	}
	return &oneDriveProvider{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		token:      cfg.AccessKey,
		folder:     folder,
		bucket:     cfg.Bucket,
		apiBase:    "https://graph.microsoft.com/v1.0",
	}, nil
}

func (p *oneDriveProvider) Bucket() string { return p.bucket }

type driveItem struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Size         uint64 `json:"size"`
	LastModified string `json:"lastModifiedDateTime"`
}

func (p *oneDriveProvider) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+p.token)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("onedrive: status %d: %s", resp.StatusCode, msg)
	}
	return resp, nil
}

func (p *oneDriveProvider) folderID(ctx context.Context) (string, error) {
	u := p.apiBase + "/me/drive/root"
	if p.folder != "" {
		u = p.apiBase + "/me/drive/root:" + p.folder
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.do(req)
	if err != nil {
		return "", fmt.Errorf("onedrive folder: %w", err)
	}
	defer resp.Body.Close()

	var item driveItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return "", fmt.Errorf("onedrive folder: %w", err)
	}
	return item.ID, nil
}

func (p *oneDriveProvider) children(ctx context.Context) ([]driveItem, error) {
	id, err := p.folderID(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.apiBase+"/me/drive/items/"+id+"/children", nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out struct {
		Value []driveItem `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Value, nil
}

func (p *oneDriveProvider) find(ctx context.Context, name string) (*driveItem, error) {
	items, err := p.children(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Name == name {
			return &items[i], nil
		}
	}
	return nil, nil
}

func (p *oneDriveProvider) Upload(ctx context.Context, key, localPath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	id, err := p.folderID(ctx)
	if err != nil {
		return fmt.Errorf("onedrive upload %s: %w", key, err)
	}
	u := p.apiBase + "/me/drive/items/" + id + ":/" + path.Base(key) + ":/content"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := p.do(req)
	if err != nil {
		return fmt.Errorf("onedrive upload %s: %w", key, err)
	}
	resp.Body.Close()
	return nil
}

func (p *oneDriveProvider) Download(ctx context.Context, key, outputPath string) error {
	item, err := p.find(ctx, path.Base(key))
	if err != nil {
		return fmt.Errorf("onedrive download %s: %w", key, err)
	}
	if item == nil {
		return fmt.Errorf("onedrive download %s: not found", key)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.apiBase+"/me/drive/items/"+item.ID+"/content", nil)
	if err != nil {
		return err
	}
	resp, err := p.do(req)
	if err != nil {
		return fmt.Errorf("onedrive download %s: %w", key, err)
	}
	defer resp.Body.Close()

	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("onedrive download %s: %w", key, err)
	}
	return nil
}

func (p *oneDriveProvider) List(ctx context.Context, prefix string) ([]Item, error) {
	dir, namePrefix := path.Split(prefix)
	children, err := p.children(ctx)
	if err != nil {
		return nil, fmt.Errorf("onedrive list: %w", err)
	}
	var items []Item
	for _, c := range children {
		if !strings.HasPrefix(c.Name, namePrefix) {
			continue
		}
		item := Item{Key: dir + c.Name, Size: c.Size}
		if t, err := time.Parse(time.RFC3339, c.LastModified); err == nil {
			item.LastModified = t
		}
		items = append(items, item)
	}
	return items, nil
}

func (p *oneDriveProvider) Delete(ctx context.Context, key string) error {
	item, err := p.find(ctx, path.Base(key))
	if err != nil {
		return fmt.Errorf("onedrive delete %s: %w", key, err)
	}
	if item == nil {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		p.apiBase+"/me/drive/items/"+item.ID, nil)
	if err != nil {
		return err
	}
	resp, err := p.do(req)
	if err != nil {
		return fmt.Errorf("onedrive delete %s: %w", key, err)
	}
	resp.Body.Close()
	return nil
}
