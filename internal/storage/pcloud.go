package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"ZestyBackup/internal/config"
)

// pcloudProvider authenticates with an access token plus a digest
// fetched fresh from /getdigest before every call, so no session state
// is kept.
type pcloudProvider struct {
	httpClient *http.Client
	token      string
	folder     string
	bucket     string

	apiBase string
}

func newPCloud(cfg *config.StorageConfig) (*pcloudProvider, error) {
	if cfg.AccessKey == "" {
		return nil, fmt.Errorf("storage: pcloud requires access_key (access token)")
	}
	apiBase := "https://api.pcloud.com"
	switch strings.ToLower(cfg.Region) {
	case "eu", "europe":
		apiBase = "https://eapi.pcloud.com"
	}
	folder := strings.TrimSuffix(cfg.BucketID, "/")
	if folder != "" && !strings.HasPrefix(folder, "/") {
		folder = "/" + folder
	}
	return &pcloudProvider{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		token:      cfg.AccessKey,
		folder:     folder,
		bucket:     cfg.Bucket,
		apiBase:    apiBase,
	}, nil
}

func (p *pcloudProvider) Bucket() string { return p.bucket }

func (p *pcloudProvider) remotePath(key string) string {
	return p.folder + "/" + strings.TrimPrefix(key, "/")
}

type pcloudMeta struct {
	Name     string `json:"name"`
	IsFolder bool   `json:"isfolder"`
	Size     uint64 `json:"size"`
	Modified string `json:"modified"`
}

type pcloudResponse struct {
	Result   int    `json:"result"`
	Error    string `json:"error"`
	Digest   string `json:"digest"`
	Metadata *struct {
		Contents []pcloudMeta `json:"contents"`
	} `json:"metadata"`
	Hosts []string `json:"hosts"`
	Path  string   `json:"path"`
}

// authParams fetches a digest and pairs it with the access token for
// one API call.
func (p *pcloudProvider) authParams(ctx context.Context) (url.Values, error) {
	resp, err := p.call(ctx, "/getdigest", url.Values{})
	if err != nil {
		return nil, err
	}
	v := url.Values{}
	v.Set("auth", p.token)
	v.Set("digest", resp.Digest)
	return v, nil
}

func (p *pcloudProvider) call(ctx context.Context, endpoint string, params url.Values) (*pcloudResponse, error) {
	u := p.apiBase + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pcloud %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("pcloud %s: status %d: %s", endpoint, resp.StatusCode, msg)
	}
	var out pcloudResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("pcloud %s: %w", endpoint, err)
	}
	if out.Result != 0 {
		return nil, fmt.Errorf("pcloud %s: %s (result %d)", endpoint, out.Error, out.Result)
	}
	return &out, nil
}

func (p *pcloudProvider) authedCall(ctx context.Context, endpoint string, params url.Values) (*pcloudResponse, error) {
	auth, err := p.authParams(ctx)
	if err != nil {
		return nil, err
	}
	for k, vs := range auth {
		params[k] = vs
	}
	return p.call(ctx, endpoint, params)
}

func (p *pcloudProvider) Upload(ctx context.Context, key, localPath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	remote := p.remotePath(key)
	dir := path.Dir(remote)

	// Parent folder may not exist yet; a failure here surfaces on upload.
	_, _ = p.authedCall(ctx, "/createfolderifnotexists", url.Values{"path": {dir}})

	auth, err := p.authParams(ctx)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k := range auth {
		if err := mw.WriteField(k, auth.Get(k)); err != nil {
			return err
		}
	}
	if err := mw.WriteField("path", dir); err != nil {
		return err
	}
	filePart, err := mw.CreateFormFile("file", path.Base(remote))
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
		p.apiBase+"/uploadfile", &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pcloud upload %s: %w", key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("pcloud upload %s: status %d: %s", key, resp.StatusCode, msg)
	}
	var out pcloudResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("pcloud upload %s: %w", key, err)
	}
	if out.Result != 0 {
		return fmt.Errorf("pcloud upload %s: %s (result %d)", key, out.Error, out.Result)
	}
	return nil
}

func (p *pcloudProvider) Download(ctx context.Context, key, outputPath string) error {
	link, err := p.authedCall(ctx, "/getfilelink", url.Values{"path": {p.remotePath(key)}})
	if err != nil {
		return fmt.Errorf("pcloud download %s: %w", key, err)
	}
	if len(link.Hosts) == 0 {
		return fmt.Errorf("pcloud download %s: no download hosts", key)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://"+link.Hosts[0]+link.Path, nil)
	if err != nil {
		return err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pcloud download %s: %w", key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pcloud download %s: status %d", key, resp.StatusCode)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("pcloud download %s: %w", key, err)
	}
	return nil
}

func (p *pcloudProvider) List(ctx context.Context, prefix string) ([]Item, error) {
	dir, namePrefix := path.Split(prefix)
	folder := strings.TrimSuffix(p.folder+"/"+dir, "/")
	if folder == "" {
		folder = "/"
	}

	resp, err := p.authedCall(ctx, "/listfolder", url.Values{"path": {folder}})
	if err != nil {
		return nil, fmt.Errorf("pcloud list: %w", err)
	}
	if resp.Metadata == nil {
		return nil, nil
	}

	var items []Item
	for _, m := range resp.Metadata.Contents {
		if m.IsFolder || !strings.HasPrefix(m.Name, namePrefix) {
			continue
		}
		item := Item{Key: dir + m.Name, Size: m.Size}
		if sec, err := strconv.ParseInt(m.Modified, 10, 64); err == nil {
			item.LastModified = time.Unix(sec, 0)
		}
		items = append(items, item)
	}
	return items, nil
}

func (p *pcloudProvider) Delete(ctx context.Context, key string) error {
	if _, err := p.authedCall(ctx, "/deletefile",
		url.Values{"path": {p.remotePath(key)}}); err != nil {
		return fmt.Errorf("pcloud delete %s: %w", key, err)
	}
	return nil
}
