package archive

import (
	"fmt"
	"strings"
	"time"
)

const (
	timestampLayout = "20060102-150405"

	// Extension carried by every backup archive; directory listings
	// filter on it.
	Extension = ".tar.zst"
)

// BackupName builds the local filename for a backup created at the given
// time. "full" and "incr" only change the name, never the contents: every
// archive is a full snapshot of its configured sources.
func BackupName(full bool, at time.Time) string {
	kind := "incr"
	if full {
		kind = "full"
	}
	return fmt.Sprintf("backup-%s-%s%s", kind, at.Format(timestampLayout), Extension)
}

// IsBackupName reports whether name looks like a backup archive of either
// kind. Consumers must not assume sort-by-name equals sort-by-time beyond
// second resolution.
func IsBackupName(name string) bool {
	if !strings.HasSuffix(name, Extension) {
		return false
	}
	rest, ok := strings.CutPrefix(name, "backup-")
	if !ok {
		return false
	}
	kind, ts, ok := strings.Cut(rest, "-")
	if !ok {
		return false
	}
	if kind != "full" && kind != "incr" {
		return false
	}
	ts = strings.TrimSuffix(ts, Extension)
	_, err := time.Parse(timestampLayout, ts)
	return err == nil
}
