package archive

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

// readEntries decompresses an archive and returns its contents by name.
func readEntries(t *testing.T, path string) map[string][]byte {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()

	entries := make(map[string][]byte)
	tr := tar.NewReader(dec)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("tar next: %v", err)
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			t.Fatalf("tar read %s: %v", hdr.Name, err)
		}
		entries[hdr.Name] = data
	}
	return entries
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestOpenRejectsBadLevels(t *testing.T) {
	dir := t.TempDir()
	for _, level := range []int{-1, 23, 100} {
		if _, err := Open(filepath.Join(dir, "x.tar.zst"), level); err == nil {
			t.Errorf("level %d: expected error", level)
		}
	}
	for _, level := range []int{0, 3, 22} {
		w, err := Open(filepath.Join(dir, "ok.tar.zst"), level)
		if err != nil {
			t.Fatalf("level %d: %v", level, err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestAppendTreeRoundTrip(t *testing.T) {
	src := t.TempDir()
	proj := filepath.Join(src, "myproj")
	writeFile(t, filepath.Join(proj, "a.txt"), "alpha")
	writeFile(t, filepath.Join(proj, "sub", "b.txt"), "beta")
	writeFile(t, filepath.Join(proj, "node_modules", "dep", "x.js"), "junk")

	out := filepath.Join(t.TempDir(), "backup.tar.zst")
	w, err := Open(out, 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.AppendTree(proj, "project", ExclusionSet{"node_modules"}); err != nil {
		t.Fatal(err)
	}
	if err := w.AppendEntry("commands/ps.txt", []byte("PID TTY")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	entries := readEntries(t, out)

	// Trees keep their top-level directory name inside the archive.
	if got := string(entries["project/myproj/a.txt"]); got != "alpha" {
		t.Errorf("a.txt = %q, entries: %v", got, keys(entries))
	}
	if got := string(entries["project/myproj/sub/b.txt"]); got != "beta" {
		t.Errorf("b.txt = %q", got)
	}
	if got := string(entries["commands/ps.txt"]); got != "PID TTY" {
		t.Errorf("ps.txt = %q", got)
	}
	for name := range entries {
		if filepath.Base(name) == "x.js" {
			t.Errorf("excluded file leaked into archive: %s", name)
		}
	}
}

func TestAppendTreeSkipsDirectoryEntries(t *testing.T) {
	src := t.TempDir()
	proj := filepath.Join(src, "p")
	writeFile(t, filepath.Join(proj, "only.txt"), "x")

	out := filepath.Join(t.TempDir(), "b.tar.zst")
	w, err := Open(out, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.AppendTree(proj, "project", nil); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	entries := readEntries(t, out)
	if len(entries) != 1 {
		t.Errorf("expected only the file entry, got %v", keys(entries))
	}
}

func TestAppendFileMissingIsSkipped(t *testing.T) {
	out := filepath.Join(t.TempDir(), "b.tar.zst")
	w, err := Open(out, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.AppendFile("/does/not/exist", "etc/hosts"); err != nil {
		t.Fatalf("missing file must be skipped, got %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if entries := readEntries(t, out); len(entries) != 0 {
		t.Errorf("expected empty archive, got %v", keys(entries))
	}
}

func TestAbortLeavesPartialFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "b.tar.zst")
	w, err := Open(out, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.AppendEntry("project/x", []byte("data")); err != nil {
		t.Fatal(err)
	}
	w.Abort()
	if _, err := os.Stat(out); err != nil {
		t.Errorf("partial file should remain on disk: %v", err)
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
