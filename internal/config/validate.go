package config

import (
	"errors"
	"fmt"
)

var ErrNoStorage = errors.New("storage configuration is required")

// ValidateStorage checks the fields every provider needs. Provider-specific
// credentials are checked at adapter construction, where the selected
// backend is known.
func ValidateStorage(cfg *StorageConfig) error {
	if cfg.Provider == "" {
		return fmt.Errorf("%w: storage.provider is not set", ErrNoStorage)
	}
	if cfg.Bucket == "" {
		return fmt.Errorf("%w: storage.bucket is not set", ErrNoStorage)
	}
	return nil
}

// ValidateBackup checks the fields required to create or clean backups.
func ValidateBackup(cfg *BackupConfig) error {
	if cfg.LocalBackupDir == "" {
		return errors.New("backup.local_backup_dir is not set")
	}
	if cfg.ProjectPath == "" {
		return errors.New("backup.project_path is not set")
	}
	return nil
}
