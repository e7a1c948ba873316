package collector

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"ZestyBackup/internal/archive"
	"ZestyBackup/internal/config"
	"ZestyBackup/internal/execx"
)

// nginxConfDir is a var so tests can point it at a scratch tree.
var nginxConfDir = "/etc/nginx"

// Presets collects common server configuration: nginx, crontabs, user
// dotfiles and selected /etc entries. Paths that do not exist are
// silently omitted so one preset config works across machines.
type Presets struct {
	Config      *config.PresetsConfig
	CurrentUser string
	Exclude     archive.ExclusionSet
	Runner      execx.Runner
	Log         *zap.Logger
}

func (p *Presets) Collect(ctx context.Context, w *archive.Writer) error {
	if p.Config == nil {
		return nil
	}
	if p.Config.NginxEnabled {
		if err := p.collectNginx(w); err != nil {
			return err
		}
	}
	if p.Config.CrontabEnabled {
		if err := p.collectCrontab(ctx, w); err != nil {
			return err
		}
	}
	if err := p.collectUserConfigs(w); err != nil {
		return err
	}
	if err := p.collectEtc(w); err != nil {
		return err
	}
	return nil
}

func (p *Presets) collectNginx(w *archive.Writer) error {
	p.Log.Info("backing up nginx configuration")
	if err := w.AppendFile(filepath.Join(nginxConfDir, "nginx.conf"), "system/nginx/nginx.conf"); err != nil {
		return err
	}
	for _, sub := range []string{"sites-available", "sites-enabled"} {
		dir := filepath.Join(nginxConfDir, sub)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := w.AppendTree(dir, "system/nginx/"+sub, p.Exclude); err != nil {
			return err
		}
	}
	// Named sites are captured from both directories; a site enabled by
	// symlink shows up under each.
	for _, site := range p.Config.NginxSites {
		for _, sub := range []string{"sites-available", "sites-enabled"} {
			if err := w.AppendFile(filepath.Join(nginxConfDir, sub, site),
				"system/nginx/"+sub+"/"+site); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Presets) collectCrontab(ctx context.Context, w *archive.Writer) error {
	user := p.Config.CrontabUser
	if user == "" {
		user = p.CurrentUser
	}
	// root's crontab is read without -u; the daemon typically runs as
	// root already and -u would need extra privileges anyway.
	args := []string{"-l"}
	if user != p.CurrentUser && user != "root" {
		args = []string{"-u", user, "-l"}
	}
	res, err := p.Runner.Run(ctx, "crontab", args, nil)
	if err != nil || res.ExitCode != 0 {
		// An empty crontab exits non-zero; nothing to archive either way.
		p.Log.Warn("crontab not captured", zap.String("user", user))
		return nil
	}
	return w.AppendEntry("system/crontab-"+user+".txt", res.Stdout)
}

func (p *Presets) collectUserConfigs(w *archive.Writer) error {
	home := p.Config.UserConfigsHome
	for _, name := range p.Config.UserConfigs {
		path := filepath.Join(home, name)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.IsDir() {
			if err := w.AppendTree(path, "user-configs/"+name, p.Exclude); err != nil {
				return err
			}
			continue
		}
		if err := w.AppendFile(path, "user-configs/"+name); err != nil {
			return err
		}
	}
	return nil
}

func (p *Presets) collectEtc(w *archive.Writer) error {
	for _, name := range p.Config.EtcFiles {
		if err := w.AppendFile(filepath.Join("/etc", name), "etc/"+name); err != nil {
			return err
		}
	}
	for _, name := range p.Config.EtcDirs {
		dir := filepath.Join("/etc", name)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := w.AppendTree(dir, "etc/"+name, p.Exclude); err != nil {
			return err
		}
	}
	return nil
}

var _ Collector = (*Presets)(nil)
