package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const (
	MinCompressionLevel = 0
	MaxCompressionLevel = 22
)

// Writer is a streaming, append-only archive sink: a tar stream nested
// inside a zstd stream, written straight to the destination file. Entries
// are never read back and the archive is never held in memory.
type Writer struct {
	file *os.File
	enc  *zstd.Encoder
	tw   *tar.Writer
}

// Open creates the destination file and the compressor/tar pipeline.
// The level is validated against the zstd range before the encoder is
// touched.
func Open(path string, level int) (*Writer, error) {
	if level < MinCompressionLevel || level > MaxCompressionLevel {
		return nil, fmt.Errorf("compression level %d out of range [%d, %d]", level, MinCompressionLevel, MaxCompressionLevel)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating archive file: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	return &Writer{file: f, enc: enc, tw: tar.NewWriter(enc)}, nil
}

// AppendEntry appends one named blob. The header carries only the path,
// size and checksum; ownership, permissions and mtime are defaulted — the
// archive does not preserve source metadata.
func (w *Writer) AppendEntry(name string, data []byte) error {
	hdr := &tar.Header{
		Name:   name,
		Size:   int64(len(data)),
		Mode:   0o644,
		Format: tar.FormatGNU,
	}
	if err := w.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing header for %s: %w", name, err)
	}
	if _, err := w.tw.Write(data); err != nil {
		return fmt.Errorf("writing entry %s: %w", name, err)
	}
	return nil
}

// AppendFile appends a single local file under archivePath. A file that
// cannot be opened is silently skipped; this is the best-effort path used
// for preset files and dumps staged by the caller.
func (w *Writer) AppendFile(localPath, archivePath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return nil
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", localPath, err)
	}
	return w.AppendEntry(archivePath, data)
}

// AppendTree walks root's subtree without following symlinks and appends
// every surviving regular file. Directory nodes are never emitted. The
// archive path is prefix joined with the path relative to root's parent,
// so the tree keeps its top-level directory name inside the archive.
// Each file is first appended via an in-memory read with a generic header;
// when that fails for a file, a streaming fallback is attempted with the
// same archive path, and only a fallback failure aborts the walk.
func (w *Writer) AppendTree(root, prefix string, excl ExclusionSet) error {
	base := filepath.Clean(root)
	parent := filepath.Dir(base)

	return filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walking %s: %w", path, err)
		}
		if excl.Excluded(path) {
			// Children of an excluded directory are caught by the
			// same substring test, so no SkipDir is needed.
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(parent, path)
		if relErr != nil {
			rel = path
		}
		name := filepath.ToSlash(rel)
		if prefix != "" {
			name = prefix + "/" + name
		}

		if appendErr := w.appendInMemory(path, name); appendErr == nil {
			return nil
		}
		if fallbackErr := w.appendStreaming(path, name); fallbackErr != nil {
			return fmt.Errorf("adding %s to archive: %w", path, fallbackErr)
		}
		return nil
	})
}

func (w *Writer) appendInMemory(path, name string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return w.AppendEntry(name, data)
}

func (w *Writer) appendStreaming(path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	if err := w.tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(w.tw, f)
	return err
}

// Close writes the tar trailer and flushes the compressor. A failure here
// is fatal to the whole backup: the archive must not be trusted.
func (w *Writer) Close() error {
	if err := w.tw.Close(); err != nil {
		w.enc.Close()
		w.file.Close()
		return fmt.Errorf("finishing tar stream: %w", err)
	}
	if err := w.enc.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("finishing zstd stream: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("closing archive file: %w", err)
	}
	return nil
}

// Abort releases the underlying file without finalizing the archive. The
// partial file is left on disk; callers must treat it as unreliable.
func (w *Writer) Abort() {
	w.enc.Close()
	w.file.Close()
}
