package collector

import (
	"context"

	"ZestyBackup/internal/archive"
)

// Collector produces archive entries from one class of source. Collectors
// are independent of each other; the backup manager sequences them against
// a single archive writer.
type Collector interface {
	Collect(ctx context.Context, w *archive.Writer) error
}
