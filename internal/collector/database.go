package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"ZestyBackup/internal/archive"
	"ZestyBackup/internal/config"
	"ZestyBackup/internal/execx"
)

// Database dumps a configured database into the archive under database/.
// The dump lands in a temp file first so a failed dump never leaves a
// truncated entry behind.
type Database struct {
	Config      *config.DatabaseConfig
	ProjectPath string
	Runner      execx.Runner
	Log         *zap.Logger
}

func (d *Database) Collect(ctx context.Context, w *archive.Writer) error {
	cfg := d.Config
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	dbType := cfg.Type
	if dbType == "" {
		dbType = "postgres"
	}

	d.Log.Info("backing up database",
		zap.String("type", dbType), zap.String("database", cfg.Database))

	if cfg.Host == "" {
		return fmt.Errorf("database backup: host is required")
	}
	if cfg.Port == 0 {
		return fmt.Errorf("database backup: port is required")
	}
	if cfg.Database == "" {
		return fmt.Errorf("database backup: database name is required")
	}
	if cfg.Username == "" {
		return fmt.Errorf("database backup: username is required")
	}
	if cfg.Password == "" {
		return fmt.Errorf("database backup: no password found in config, DB_PASSWORD or .env")
	}

	if dbType == "sqlite" {
		return d.collectSQLite(w)
	}

	tmpPath := filepath.Join(os.TempDir(),
		fmt.Sprintf("backup_db_%s_%d.dump", cfg.Database, time.Now().Unix()))
	defer os.Remove(tmpPath)

	var (
		res execx.Result
		err error
		ext string
	)
	port := strconv.Itoa(cfg.Port)

	switch dbType {
	case "postgres", "postgresql":
		ext = "sql"
		res, err = d.Runner.Run(ctx, "pg_dump",
			[]string{"-h", cfg.Host, "-p", port, "-U", cfg.Username, cfg.Database},
			[]string{"PGPASSWORD=" + cfg.Password})
	case "mysql", "mariadb":
		ext = "sql"
		res, err = d.Runner.Run(ctx, "mysqldump",
			[]string{"-h", cfg.Host, "-P", port, "-u", cfg.Username,
				"-p" + cfg.Password, cfg.Database}, nil)
	case "mongodb":
		res, err = d.Runner.Run(ctx, "mongodump",
			[]string{"--host", cfg.Host, "--port", port,
				"--username", cfg.Username, "--password", cfg.Password,
				"--db", cfg.Database, "--out", tmpPath}, nil)
		if err != nil {
			return fmt.Errorf("database backup: mongodump: %w", err)
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("database backup: mongodump failed: %s", res.Stderr)
		}
		// mongodump writes a directory tree, which does not fit a single
		// archive entry. Leave it to the additional_paths mechanism.
		d.Log.Warn("mongodb dump written to directory, not archived",
			zap.String("path", tmpPath))
		return nil
	case "cassandra", "scylla":
		ext = "cql"
		res, err = d.Runner.Run(ctx, "cqlsh",
			[]string{cfg.Host, port, "-u", cfg.Username, "-p", cfg.Password,
				"-e", fmt.Sprintf("DESCRIBE KEYSPACE %s;", cfg.Database)}, nil)
	case "redis":
		ext = "rdb"
		res, err = d.Runner.Run(ctx, "redis-cli",
			[]string{"-h", cfg.Host, "-p", port, "-a", cfg.Password,
				"--rdb", tmpPath}, nil)
	default:
		return fmt.Errorf("database backup: unsupported database type %q", dbType)
	}
	if err != nil {
		return fmt.Errorf("database backup: %s: %w", dbType, err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("database backup: %s dump failed: %s", dbType, res.Stderr)
	}

	if err := os.WriteFile(tmpPath, res.Stdout, 0o600); err != nil {
		return fmt.Errorf("database backup: write dump: %w", err)
	}
	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return fmt.Errorf("database backup: read dump: %w", err)
	}
	name := fmt.Sprintf("database/%s.%s", cfg.Database, ext)
	if err := w.AppendEntry(name, data); err != nil {
		return fmt.Errorf("database backup: %w", err)
	}
	d.Log.Info("backed up database", zap.String("entry", name))
	return nil
}

func (d *Database) collectSQLite(w *archive.Writer) error {
	// The database field holds a path, relative paths resolve against the
	// project directory.
	p := d.Config.Database
	if p == "" {
		return fmt.Errorf("database backup: sqlite database path is required")
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(d.ProjectPath, p)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return fmt.Errorf("database backup: sqlite file: %w", err)
	}
	base := filepath.Base(p)
	name := "database/" + base[:len(base)-len(filepath.Ext(base))] + ".sqlite"
	if err := w.AppendEntry(name, data); err != nil {
		return fmt.Errorf("database backup: %w", err)
	}
	d.Log.Info("backed up database", zap.String("entry", name))
	return nil
}

var _ Collector = (*Database)(nil)
