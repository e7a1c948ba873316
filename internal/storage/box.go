package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"ZestyBackup/internal/config"
)

// boxProvider stores archives flat inside one Box folder. Folder ID 0
// is the Box root.
type boxProvider struct {
	httpClient *http.Client
	token      string
	folderID   string
	bucket     string

	apiBase    string
	uploadBase string
}

func newBox(cfg *config.StorageConfig) (*boxProvider, error) {
	if cfg.AccessKey == "" {
		return nil, fmt.Errorf("storage: box requires access_key (OAuth token)")
	}
	folder := cfg.BucketID
	if folder == "" {
		folder = "0"
	}
	return &boxProvider{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		token:      cfg.AccessKey,
		folderID:   folder,
		bucket:     cfg.Bucket,
		apiBase:    "https://api.box.com/2.0",
		uploadBase: "https://upload.box.com/api/2.0",
	}, nil
}

func (p *boxProvider) Bucket() string { return p.bucket }

type boxEntry struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Name       string `json:"name"`
	Size       uint64 `json:"size"`
	ModifiedAt string `json:"modified_at"`
}

func (p *boxProvider) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+p.token)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("box: status %d: %s", resp.StatusCode, msg)
	}
	return resp, nil
}

func (p *boxProvider) entries(ctx context.Context) ([]boxEntry, error) {
	u := p.apiBase + "/folders/" + p.folderID + "/items?fields=name,size,modified_at&limit=1000"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out struct {
		Entries []boxEntry `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

func (p *boxProvider) find(ctx context.Context, name string) (*boxEntry, error) {
	entries, err := p.entries(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Type == "file" && entries[i].Name == name {
			return &entries[i], nil
		}
	}
	return nil, nil
}

func (p *boxProvider) Upload(ctx context.Context, key, localPath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	attrs, err := json.Marshal(map[string]interface{}{
		"name":   path.Base(key),
		"parent": map[string]string{"id": p.folderID},
	})
	if err != nil {
		return err
	}
	if err := mw.WriteField("attributes", string(attrs)); err != nil {
		return err
	}
	filePart, err := mw.CreateFormFile("file", path.Base(key))
	if err != nil {
		return err
	}
	if _, err := filePart.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.uploadBase+"/files/content", &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.do(req)
	if err != nil {
		return fmt.Errorf("box upload %s: %w", key, err)
	}
	resp.Body.Close()
	return nil
}

func (p *boxProvider) Download(ctx context.Context, key, outputPath string) error {
	entry, err := p.find(ctx, path.Base(key))
	if err != nil {
		return fmt.Errorf("box download %s: %w", key, err)
	}
	if entry == nil {
		return fmt.Errorf("box download %s: not found", key)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.apiBase+"/files/"+entry.ID+"/content", nil)
	if err != nil {
		return err
	}
	resp, err := p.do(req)
	if err != nil {
		return fmt.Errorf("box download %s: %w", key, err)
	}
	defer resp.Body.Close()

	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("box download %s: %w", key, err)
	}
	return nil
}

func (p *boxProvider) List(ctx context.Context, prefix string) ([]Item, error) {
	dir, namePrefix := path.Split(prefix)
	entries, err := p.entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("box list: %w", err)
	}
	var items []Item
	for _, e := range entries {
		if e.Type != "file" || !strings.HasPrefix(e.Name, namePrefix) {
			continue
		}
		item := Item{Key: dir + e.Name, Size: e.Size}
		if t, err := time.Parse(time.RFC3339, e.ModifiedAt); err == nil {
			item.LastModified = t
		}
		items = append(items, item)
	}
	return items, nil
}

func (p *boxProvider) Delete(ctx context.Context, key string) error {
	entry, err := p.find(ctx, path.Base(key))
	if err != nil {
		return fmt.Errorf("box delete %s: %w", key, err)
	}
	if entry == nil {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		p.apiBase+"/files/"+entry.ID, nil)
	if err != nil {
		return err
	}
	resp, err := p.do(req)
	if err != nil {
		return fmt.Errorf("box delete %s: %w", key, err)
	}
	resp.Body.Close()
	return nil
}
