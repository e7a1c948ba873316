package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"ZestyBackup/internal/config"
)

// googleDriveProvider stores archives flat inside one Drive folder,
// addressed by file name. Keys with a directory part keep only their
// base name remotely; List rejoins the directory part so round-trips
// through Upload/List/Delete agree.
type googleDriveProvider struct {
	httpClient *http.Client
	token      string
	folderID   string
	bucket     string

	apiBase    string
	uploadBase string
}

func newGoogleDrive(cfg *config.StorageConfig) (*googleDriveProvider, error) {
	if cfg.AccessKey == "" {
		return nil, fmt.Errorf("storage: googledrive requires access_key (OAuth token)")
	}
	folder := cfg.BucketID
	if folder == "" {
		folder = "root"
	}
	return &googleDriveProvider{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		token:      cfg.AccessKey,
		folderID:   folder,
		bucket:     cfg.Bucket,
		apiBase:    "https://www.googleapis.com/drive/v3",
		uploadBase: "https://www.googleapis.com/upload/drive/v3",
	}, nil
}

func (p *googleDriveProvider) Bucket() string { return p.bucket }

type driveFile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Size         string `json:"size"`
	ModifiedTime string `json:"modifiedTime"`
}

func (p *googleDriveProvider) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+p.token)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("drive: status %d: %s", resp.StatusCode, msg)
	}
	return resp, nil
}

func (p *googleDriveProvider) Upload(ctx context.Context, key, localPath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := mw.CreatePart(metaHeader)
	if err != nil {
		return err
	}
	meta := map[string]interface{}{
		"name":    path.Base(key),
		"parents": []string{p.folderID},
	}
	if err := json.NewEncoder(metaPart).Encode(meta); err != nil {
		return err
	}

	fileHeader := textproto.MIMEHeader{}
	fileHeader.Set("Content-Type", "application/octet-stream")
	filePart, err := mw.CreatePart(fileHeader)
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
		p.uploadBase+"/files?uploadType=multipart", &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "multipart/related; boundary="+mw.Boundary())

	resp, err := p.do(req)
	if err != nil {
		return fmt.Errorf("drive upload %s: %w", key, err)
	}
	resp.Body.Close()
	return nil
}

func (p *googleDriveProvider) findByName(ctx context.Context, name string) (*driveFile, error) {
	query := fmt.Sprintf("name='%s' and '%s' in parents and trashed=false", name, p.folderID)
	u := p.apiBase + "/files?q=" + url.QueryEscape(query) +
		"&fields=" + url.QueryEscape("files(id,name,size,modifiedTime)")
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
		Files []driveFile `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Files) == 0 {
		return nil, nil
	}
	return &out.Files[0], nil
}

func (p *googleDriveProvider) Download(ctx context.Context, key, outputPath string) error {
	f, err := p.findByName(ctx, path.Base(key))
	if err != nil {
		return fmt.Errorf("drive download %s: %w", key, err)
	}
	if f == nil {
		return fmt.Errorf("drive download %s: not found", key)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.apiBase+"/files/"+f.ID+"?alt=media", nil)
	if err != nil {
		return err
	}
	resp, err := p.do(req)
	if err != nil {
		return fmt.Errorf("drive download %s: %w", key, err)
	}
	defer resp.Body.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("drive download %s: %w", key, err)
	}
	return nil
}

func (p *googleDriveProvider) List(ctx context.Context, prefix string) ([]Item, error) {
	dir, namePrefix := path.Split(prefix)

	query := fmt.Sprintf("'%s' in parents and trashed=false", p.folderID)
	u := p.apiBase + "/files?q=" + url.QueryEscape(query) +
		"&fields=" + url.QueryEscape("files(id,name,size,modifiedTime)")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.do(req)
	if err != nil {
		return nil, fmt.Errorf("drive list: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Files []driveFile `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("drive list: %w", err)
	}

	var items []Item
	for _, f := range out.Files {
		if !strings.HasPrefix(f.Name, namePrefix) {
			continue
		}
		item := Item{Key: dir + f.Name}
		if f.Size != "" {
			if n, err := strconv.ParseUint(f.Size, 10, 64); err == nil {
				item.Size = n
			}
		}
		if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
			item.LastModified = t
		}
		items = append(items, item)
	}
	return items, nil
}

func (p *googleDriveProvider) Delete(ctx context.Context, key string) error {
	f, err := p.findByName(ctx, path.Base(key))
	if err != nil {
		return fmt.Errorf("drive delete %s: %w", key, err)
	}
	if f == nil {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		p.apiBase+"/files/"+f.ID, nil)
	if err != nil {
		return err
	}
	resp, err := p.do(req)
	if err != nil {
		return fmt.Errorf("drive delete %s: %w", key, err)
	}
	resp.Body.Close()
	return nil
}
