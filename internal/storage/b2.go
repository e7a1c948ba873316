package storage

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"ZestyBackup/internal/config"
)

const b2AuthURL = "https://api.backblazeb2.com/b2api/v2/b2_authorize_account"

// b2Provider speaks the Backblaze B2 native API. The account is
// authorized once at construction; upload URLs are short-lived and
// fetched per upload.
type b2Provider struct {
	httpClient *http.Client
	bucket     string
	bucketID   string

	apiURL      string
	downloadURL string
	token       string
}

func newB2(ctx context.Context, cfg *config.StorageConfig) (*b2Provider, error) {
	if cfg.AccountID == "" || cfg.ApplicationKey == "" {
		return nil, fmt.Errorf("storage: b2 requires account_id and application_key")
	}
	if cfg.BucketID == "" {
		return nil, fmt.Errorf("storage: b2 requires bucket_id")
	}
	return newB2At(ctx, cfg, b2AuthURL)
}

func newB2At(ctx context.Context, cfg *config.StorageConfig, authURL string) (*b2Provider, error) {
	p := &b2Provider{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		bucket:     cfg.Bucket,
		bucketID:   cfg.BucketID,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authURL, nil)
	if err != nil {
		return nil, err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(cfg.AccountID + ":" + cfg.ApplicationKey))
	req.Header.Set("Authorization", "Basic "+basic)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("b2 authorize: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("b2 authorize: status %d: %s", resp.StatusCode, body)
	}

	var auth struct {
		APIURL      string `json:"apiUrl"`
		DownloadURL string `json:"downloadUrl"`
		Token       string `json:"authorizationToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return nil, fmt.Errorf("b2 authorize: %w", err)
	}
	p.apiURL = auth.APIURL
	p.downloadURL = auth.DownloadURL
	p.token = auth.Token
	return p, nil
}

func (p *b2Provider) Bucket() string { return p.bucket }

func (p *b2Provider) apiCall(ctx context.Context, op string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.apiURL+"/b2api/v2/"+op, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", p.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("b2 %s: %w", op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("b2 %s: status %d: %s", op, resp.StatusCode, msg)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (p *b2Provider) Upload(ctx context.Context, key, localPath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}

	var upload struct {
		UploadURL string `json:"uploadUrl"`
		Token     string `json:"authorizationToken"`
	}
	if err := p.apiCall(ctx, "b2_get_upload_url",
		map[string]string{"bucketId": p.bucketID}, &upload); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, upload.UploadURL,
		bytes.NewReader(data))
	if err != nil {
		return err
	}
	sum := sha1.Sum(data)
	req.Header.Set("Authorization", upload.Token)
	req.Header.Set("X-Bz-File-Name", url.PathEscape(key))
	req.Header.Set("Content-Type", "b2/x-auto")
	req.Header.Set("X-Bz-Content-Sha1", fmt.Sprintf("%x", sum))
	req.ContentLength = int64(len(data))

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("b2 upload %s: %w", key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("b2 upload %s: status %d: %s", key, resp.StatusCode, msg)
	}
	return nil
}

func (p *b2Provider) Download(ctx context.Context, key, outputPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.downloadURL+"/file/"+p.bucket+"/"+key, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", p.token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("b2 download %s: %w", key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("b2 download %s: status %d: %s", key, resp.StatusCode, msg)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("b2 download %s: %w", key, err)
	}
	return nil
}

type b2File struct {
	FileID          string `json:"fileId"`
	FileName        string `json:"fileName"`
	ContentLength   uint64 `json:"contentLength"`
	UploadTimestamp int64  `json:"uploadTimestamp"`
}

func (p *b2Provider) List(ctx context.Context, prefix string) ([]Item, error) {
	var items []Item
	start := ""
	for {
		var page struct {
			Files        []b2File `json:"files"`
			NextFileName *string  `json:"nextFileName"`
		}
		err := p.apiCall(ctx, "b2_list_file_names", map[string]interface{}{
			"bucketId":      p.bucketID,
			"startFileName": start,
			"maxFileCount":  1000,
			"prefix":        prefix,
		}, &page)
		if err != nil {
			return nil, err
		}
		for _, f := range page.Files {
			items = append(items, Item{
				Key:          f.FileName,
				Size:         f.ContentLength,
				LastModified: time.UnixMilli(f.UploadTimestamp),
			})
		}
		if len(page.Files) == 0 || page.NextFileName == nil {
			break
		}
		start = *page.NextFileName
	}
	return items, nil
}

func (p *b2Provider) Delete(ctx context.Context, key string) error {
	var versions struct {
		Files []b2File `json:"files"`
	}
	err := p.apiCall(ctx, "b2_list_file_versions", map[string]interface{}{
		"bucketId":      p.bucketID,
		"startFileName": key,
		"maxFileCount":  1,
	}, &versions)
	if err != nil {
		return err
	}
	for _, f := range versions.Files {
		if f.FileName != key {
			continue
		}
		return p.apiCall(ctx, "b2_delete_file_version", map[string]string{
			"fileName": f.FileName,
			"fileId":   f.FileID,
		}, nil)
	}
	// Already gone.
	return nil
}
