package collector

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"ZestyBackup/internal/archive"
)

func TestFilesystemCollect(t *testing.T) {
	root := t.TempDir()
	proj := filepath.Join(root, "webapp")
	mustWrite(t, filepath.Join(proj, "main.go"), "package main")
	mustWrite(t, filepath.Join(proj, "node_modules", "x.js"), "junk")

	extraDir := filepath.Join(root, "nginx")
	mustWrite(t, filepath.Join(extraDir, "nginx.conf"), "events {}")
	extraFile := filepath.Join(root, "hosts")
	mustWrite(t, extraFile, "127.0.0.1 localhost")

	c := &Filesystem{
		ProjectPath:     proj,
		AdditionalPaths: []string{extraDir, extraFile, filepath.Join(root, "missing")},
		Exclude:         archive.ExclusionSet{"node_modules"},
		Log:             zap.NewNop(),
	}
	entries := collect(t, c)

	if got := string(entries["project/webapp/main.go"]); got != "package main" {
		t.Errorf("project entry = %q, have %v", got, entryNames(entries))
	}
	if got := string(entries["system/nginx/nginx/nginx.conf"]); got != "events {}" {
		t.Errorf("additional dir entry = %q, have %v", got, entryNames(entries))
	}
	if got := string(entries["system/hosts"]); got != "127.0.0.1 localhost" {
		t.Errorf("additional file entry = %q", got)
	}
	for _, name := range entryNames(entries) {
		if filepath.Base(name) == "x.js" {
			t.Errorf("excluded file in archive: %s", name)
		}
	}
}

func TestFilesystemMissingProjectFails(t *testing.T) {
	c := &Filesystem{
		ProjectPath: filepath.Join(t.TempDir(), "nope"),
		Log:         zap.NewNop(),
	}
	collectErr(t, c)
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
