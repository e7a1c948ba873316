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

// dropboxProvider keeps the whole key as a path below the configured
// folder, so `backups/<name>` becomes `/<folder>/backups/<name>`.
type dropboxProvider struct {
	httpClient *http.Client
	token      string
	folder     string
	bucket     string

	apiBase     string
	contentBase string
}

func newDropbox(cfg *config.StorageConfig) (*dropboxProvider, error) {
	if cfg.AccessKey == "" {
		return nil, fmt.Errorf("storage: dropbox requires access_key (OAuth token)")
	}
	folder := strings.TrimSuffix(cfg.BucketID, "/")
	if folder != "" && !strings.HasPrefix(folder, "/") {
		folder = "/" + folder
	}
	return &dropboxProvider{
		httpClient:  &http.Client{Timeout: 2 * time.Minute},
		token:       cfg.AccessKey,
		folder:      folder,
		bucket:      cfg.Bucket,
		apiBase:     "https://api.dropboxapi.com/2",
		contentBase: "https://content.dropboxapi.com/2",
	}, nil
}

func (p *dropboxProvider) Bucket() string { return p.bucket }

func (p *dropboxProvider) remotePath(key string) string {
	return p.folder + "/" + strings.TrimPrefix(key, "/")
}

func (p *dropboxProvider) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+p.token)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("dropbox: status %d: %s", resp.StatusCode, msg)
	}
	return resp, nil
}

func (p *dropboxProvider) Upload(ctx context.Context, key, localPath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	arg, err := json.Marshal(map[string]interface{}{
		"path": p.remotePath(key),
		"mode": "overwrite",
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.contentBase+"/files/upload", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Dropbox-API-Arg", string(arg))
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := p.do(req)
	if err != nil {
		return fmt.Errorf("dropbox upload %s: %w", key, err)
	}
	resp.Body.Close()
	return nil
}

func (p *dropboxProvider) Download(ctx context.Context, key, outputPath string) error {
	arg, err := json.Marshal(map[string]string{"path": p.remotePath(key)})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.contentBase+"/files/download", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Dropbox-API-Arg", string(arg))

	resp, err := p.do(req)
	if err != nil {
		return fmt.Errorf("dropbox download %s: %w", key, err)
	}
	defer resp.Body.Close()

	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("dropbox download %s: %w", key, err)
	}
	return nil
}

func (p *dropboxProvider) List(ctx context.Context, prefix string) ([]Item, error) {
	dir, namePrefix := path.Split(prefix)
	folder := strings.TrimSuffix(p.folder+"/"+dir, "/")

	body, err := json.Marshal(map[string]interface{}{
		"path":      folder,
		"recursive": false,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.apiBase+"/files/list_folder", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.do(req)
	if err != nil {
		return nil, fmt.Errorf("dropbox list: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Entries []struct {
			Tag            string `json:".tag"`
			Name           string `json:"name"`
			Size           uint64 `json:"size"`
			ServerModified string `json:"server_modified"`
		} `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("dropbox list: %w", err)
	}

	var items []Item
	for _, e := range out.Entries {
		if e.Tag != "file" || !strings.HasPrefix(e.Name, namePrefix) {
			continue
		}
		item := Item{Key: dir + e.Name, Size: e.Size}
		if t, err := time.Parse(time.RFC3339, e.ServerModified); err == nil {
			item.LastModified = t
		}
		items = append(items, item)
	}
	return items, nil
}

func (p *dropboxProvider) Delete(ctx context.Context, key string) error {
	body, err := json.Marshal(map[string]string{"path": p.remotePath(key)})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.apiBase+"/files/delete_v2", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.do(req)
	if err != nil {
		return fmt.Errorf("dropbox delete %s: %w", key, err)
	}
	resp.Body.Close()
	return nil
}
