package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"ZestyBackup/internal/config"
	"ZestyBackup/internal/execx"
)

// megaProvider shells out to the MEGAcmd suite. Every operation checks
// the session first with mega-whoami and logs in again if needed, since
// the MEGAcmd server can drop sessions between invocations.
type megaProvider struct {
	runner   execx.Runner
	log      *zap.Logger
	email    string
	password string
	folder   string
	bucket   string
}

func newMega(ctx context.Context, cfg *config.StorageConfig, runner execx.Runner, log *zap.Logger) (*megaProvider, error) {
	if cfg.AccountName == "" || cfg.AccountKey == "" {
		return nil, fmt.Errorf("storage: mega requires account_name (email) and account_key (password)")
	}
	// A missing MEGAcmd install is only a warning here; the first real
	// operation surfaces the failure.
	if _, err := runner.Run(ctx, "mega-version", nil, nil); err != nil {
		log.Warn("MEGAcmd not found, mega operations will fail until it is installed",
			zap.Error(err))
	}
	folder := strings.TrimSuffix(cfg.BucketID, "/")
	if folder != "" && !strings.HasPrefix(folder, "/") {
		folder = "/" + folder
	}
	return &megaProvider{
		runner:   runner,
		log:      log,
		email:    cfg.AccountName,
		password: cfg.AccountKey,
		folder:   folder,
		bucket:   cfg.Bucket,
	}, nil
}

func (p *megaProvider) Bucket() string { return p.bucket }

func (p *megaProvider) remotePath(key string) string {
	return p.folder + "/" + strings.TrimPrefix(key, "/")
}

func (p *megaProvider) ensureLoggedIn(ctx context.Context) error {
	res, err := p.runner.Run(ctx, "mega-whoami", nil, nil)
	if err == nil && res.ExitCode == 0 && len(strings.TrimSpace(string(res.Stdout))) > 0 {
		return nil
	}
	p.log.Info("logging in to mega", zap.String("account", p.email))
	res, err = p.runner.Run(ctx, "mega-login", []string{p.email, p.password}, nil)
	if err != nil {
		return fmt.Errorf("mega login: %w", err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("mega login failed: %s", res.Stderr)
	}
	return nil
}

func (p *megaProvider) run(ctx context.Context, name string, args ...string) (execx.Result, error) {
	res, err := p.runner.Run(ctx, name, args, nil)
	if err != nil {
		return res, fmt.Errorf("%s: %w", name, err)
	}
	if res.ExitCode != 0 {
		return res, fmt.Errorf("%s failed: %s", name, res.Stderr)
	}
	return res, nil
}

func (p *megaProvider) Upload(ctx context.Context, key, localPath string) error {
	if err := p.ensureLoggedIn(ctx); err != nil {
		return err
	}
	remote := p.remotePath(key)
	remoteDir := path.Dir(remote)

	// mkdir fails when the folder exists; either way put decides.
	_, _ = p.runner.Run(ctx, "mega-mkdir", []string{"-p", remoteDir}, nil)

	if _, err := p.run(ctx, "mega-put", localPath, remoteDir+"/"); err != nil {
		return fmt.Errorf("mega upload %s: %w", key, err)
	}
	uploaded := remoteDir + "/" + filepath.Base(localPath)
	if filepath.Base(localPath) != path.Base(remote) {
		if _, err := p.run(ctx, "mega-mv", uploaded, remote); err != nil {
			return fmt.Errorf("mega upload %s: %w", key, err)
		}
	}
	return nil
}

func (p *megaProvider) Download(ctx context.Context, key, outputPath string) error {
	if err := p.ensureLoggedIn(ctx); err != nil {
		return err
	}
	remote := p.remotePath(key)
	outDir := filepath.Dir(outputPath)
	if _, err := p.run(ctx, "mega-get", remote, outDir); err != nil {
		return fmt.Errorf("mega download %s: %w", key, err)
	}
	got := filepath.Join(outDir, path.Base(remote))
	if got != outputPath {
		if err := os.Rename(got, outputPath); err != nil {
			return fmt.Errorf("mega download %s: %w", key, err)
		}
	}
	return nil
}

func (p *megaProvider) List(ctx context.Context, prefix string) ([]Item, error) {
	if err := p.ensureLoggedIn(ctx); err != nil {
		return nil, err
	}
	dir, namePrefix := path.Split(prefix)
	folder := strings.TrimSuffix(p.folder+"/"+dir, "/")
	if folder == "" {
		folder = "/"
	}

	res, err := p.run(ctx, "mega-ls", "-l", folder)
	if err != nil {
		return nil, fmt.Errorf("mega list: %w", err)
	}

	var items []Item
	for _, line := range strings.Split(string(res.Stdout), "\n") {
		item, ok := parseMegaEntry(line)
		if !ok || !strings.HasPrefix(item.Key, namePrefix) {
			continue
		}
		item.Key = dir + item.Key
		items = append(items, item)
	}
	return items, nil
}

// parseMegaEntry handles one mega-ls -l line. Files carry a "-" flag
// column; anything else (directories, headers, blanks) is skipped. The
// name is everything after the size column and may contain spaces.
// MEGAcmd does not expose modification times here, so LastModified
// stays zero.
func parseMegaEntry(line string) (Item, bool) {
	parts := strings.Fields(line)
	if len(parts) < 6 || !strings.HasPrefix(parts[0], "-") {
		return Item{}, false
	}
	size, err := strconv.ParseUint(parts[4], 10, 64)
	if err != nil {
		return Item{}, false
	}
	return Item{
		Key:  strings.Join(parts[5:], " "),
		Size: size,
	}, true
}

func (p *megaProvider) Delete(ctx context.Context, key string) error {
	if err := p.ensureLoggedIn(ctx); err != nil {
		return err
	}
	if _, err := p.run(ctx, "mega-rm", p.remotePath(key)); err != nil {
		return fmt.Errorf("mega delete %s: %w", key, err)
	}
	return nil
}
