package collector

import (
	"archive/tar"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"ZestyBackup/internal/archive"
)

// collect runs one collector against a fresh archive and returns the
// entries written.
func collect(t *testing.T, c Collector) map[string][]byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.tar.zst")
	w, err := archive.Open(path, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Collect(context.Background(), w); err != nil {
		w.Abort()
		t.Fatalf("collect: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return readEntries(t, path)
}

func readEntries(t *testing.T, path string) map[string][]byte {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatal(err)
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
			t.Fatal(err)
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			t.Fatal(err)
		}
		entries[hdr.Name] = data
	}
	return entries
}
