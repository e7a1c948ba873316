package collector

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"ZestyBackup/internal/archive"
	"ZestyBackup/internal/config"
	"ZestyBackup/internal/execx"
)

func TestPresetsCrontab(t *testing.T) {
	runner := execx.NewFakeRunner()
	runner.Responses["crontab -l"] = execx.Result{Stdout: []byte("0 3 * * * /usr/local/bin/backup\n")}

	p := &Presets{
		Config:      &config.PresetsConfig{CrontabEnabled: true, CrontabUser: "root"},
		CurrentUser: "root",
		Runner:      runner,
		Log:         zap.NewNop(),
	}
	entries := collect(t, p)
	if got := string(entries["system/crontab-root.txt"]); got != "0 3 * * * /usr/local/bin/backup\n" {
		t.Errorf("entry = %q", got)
	}
}

func TestPresetsCrontabOtherUser(t *testing.T) {
	runner := execx.NewFakeRunner()
	runner.Responses["crontab -u deploy -l"] = execx.Result{Stdout: []byte("@daily true\n")}

	p := &Presets{
		Config:      &config.PresetsConfig{CrontabEnabled: true, CrontabUser: "deploy"},
		CurrentUser: "root",
		Runner:      runner,
		Log:         zap.NewNop(),
	}
	entries := collect(t, p)
	if _, ok := entries["system/crontab-deploy.txt"]; !ok {
		t.Errorf("expected deploy crontab, got %v", entries)
	}
}

func TestPresetsEmptyCrontabIsSkipped(t *testing.T) {
	runner := execx.NewFakeRunner()
	runner.Responses["crontab -l"] = execx.Result{ExitCode: 1, Stderr: []byte("no crontab for root")}

	p := &Presets{
		Config:      &config.PresetsConfig{CrontabEnabled: true, CrontabUser: "root"},
		CurrentUser: "root",
		Runner:      runner,
		Log:         zap.NewNop(),
	}
	if entries := collect(t, p); len(entries) != 0 {
		t.Errorf("unexpected entries: %v", entries)
	}
}

func TestPresetsCrontabRootIsNeverQualified(t *testing.T) {
	runner := execx.NewFakeRunner()
	runner.Responses["crontab -l"] = execx.Result{Stdout: []byte("@reboot true\n")}

	p := &Presets{
		Config:      &config.PresetsConfig{CrontabEnabled: true, CrontabUser: "root"},
		CurrentUser: "deploy",
		Runner:      runner,
		Log:         zap.NewNop(),
	}
	entries := collect(t, p)
	if _, ok := entries["system/crontab-root.txt"]; !ok {
		t.Fatalf("expected root crontab, got %v", entryNames(entries))
	}
	calls := runner.CallsFor("crontab")
	if len(calls) != 1 || len(calls[0].Args) != 1 || calls[0].Args[0] != "-l" {
		t.Errorf("root crontab must be read without -u, calls = %v", calls)
	}
}

func TestPresetsUserConfigs(t *testing.T) {
	home := t.TempDir()
	if err := os.WriteFile(filepath.Join(home, ".bashrc"), []byte("alias ll='ls -l'"), 0o644); err != nil {
		t.Fatal(err)
	}
	sshDir := filepath.Join(home, ".ssh")
	if err := os.MkdirAll(sshDir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sshDir, "config"), []byte("Host *"), 0o600); err != nil {
		t.Fatal(err)
	}

	p := &Presets{
		Config: &config.PresetsConfig{
			UserConfigs:     []string{".bashrc", ".ssh", ".vimrc"},
			UserConfigsHome: home,
		},
		CurrentUser: "root",
		Runner:      execx.NewFakeRunner(),
		Log:         zap.NewNop(),
	}
	entries := collect(t, p)
	if got := string(entries["user-configs/.bashrc"]); got != "alias ll='ls -l'" {
		t.Errorf(".bashrc = %q", got)
	}
	// Directories keep their top-level name under the prefix.
	if got := string(entries["user-configs/.ssh/.ssh/config"]); got != "Host *" {
		t.Errorf(".ssh/config missing, entries: %v", entryNames(entries))
	}
	for name := range entries {
		if filepath.Base(name) == ".vimrc" {
			t.Error("missing dotfile must be silently omitted")
		}
	}
}

func TestPresetsUserConfigTreesHonorExclusions(t *testing.T) {
	home := t.TempDir()
	cfgDir := filepath.Join(home, ".config")
	if err := os.MkdirAll(filepath.Join(cfgDir, "node_modules"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "node_modules", "x.js"), []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "settings.toml"), []byte("ok"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := &Presets{
		Config: &config.PresetsConfig{
			UserConfigs:     []string{".config"},
			UserConfigsHome: home,
		},
		CurrentUser: "root",
		Exclude:     archive.ExclusionSet{"node_modules"},
		Runner:      execx.NewFakeRunner(),
		Log:         zap.NewNop(),
	}
	entries := collect(t, p)
	if _, ok := entries["user-configs/.config/.config/settings.toml"]; !ok {
		t.Errorf("expected settings.toml, got %v", entryNames(entries))
	}
	for _, name := range entryNames(entries) {
		if filepath.Base(name) == "x.js" {
			t.Errorf("excluded pattern leaked through presets: %s", name)
		}
	}
}

func TestPresetsNamedNginxSites(t *testing.T) {
	confDir := t.TempDir()
	old := nginxConfDir
	nginxConfDir = confDir
	t.Cleanup(func() { nginxConfDir = old })

	mustWrite(t, filepath.Join(confDir, "nginx.conf"), "events {}")
	mustWrite(t, filepath.Join(confDir, "sites-available", "example.conf"), "server {}")
	mustWrite(t, filepath.Join(confDir, "sites-enabled", "example.conf"), "server {}")

	p := &Presets{
		Config:      &config.PresetsConfig{NginxEnabled: true, NginxSites: []string{"example.conf", "missing.conf"}},
		CurrentUser: "root",
		Runner:      execx.NewFakeRunner(),
		Log:         zap.NewNop(),
	}
	entries := collect(t, p)
	if got := string(entries["system/nginx/nginx.conf"]); got != "events {}" {
		t.Errorf("nginx.conf = %q", got)
	}
	// A named site is captured from both directories under its own path.
	for _, want := range []string{
		"system/nginx/sites-available/example.conf",
		"system/nginx/sites-enabled/example.conf",
	} {
		if got := string(entries[want]); got != "server {}" {
			t.Errorf("%s = %q, entries %v", want, got, entryNames(entries))
		}
	}
	for _, name := range entryNames(entries) {
		if filepath.Base(name) == "missing.conf" {
			t.Error("missing site must be silently omitted")
		}
	}
}

func TestPresetsNilConfig(t *testing.T) {
	p := &Presets{Config: nil, Runner: execx.NewFakeRunner(), Log: zap.NewNop()}
	if entries := collect(t, p); len(entries) != 0 {
		t.Errorf("unexpected entries: %v", entries)
	}
}

func entryNames(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
