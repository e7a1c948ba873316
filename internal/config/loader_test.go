package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleTOML = `
[storage]
provider = "b2"
bucket = "my-backups"
account_id = "acct"
application_key = "appkey"
bucket_id = "bid"

[backup]
local_backup_dir = "/var/backups/zesty"
project_path = "/srv/app"
additional_paths = ["/etc/nginx"]
retention_days = 0
exclude = ["node_modules", "*.log"]

[database]
enabled = true
type = "postgres"
host = "localhost"
port = 5432
database = "app"
username = "app"

[system]
systemd_services = ["app.service"]

[[system.command_outputs]]
command = "ps"
args = ["aux"]
output_file = "ps.txt"
enabled = false
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleTOML))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Storage.Provider != "b2" || cfg.Storage.BucketID != "bid" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Backup.LocalBackupDir != "/var/backups/zesty" {
		t.Errorf("backup dir = %q", cfg.Backup.LocalBackupDir)
	}
	if len(cfg.Backup.Exclude) != 2 {
		t.Errorf("exclude = %v", cfg.Backup.Exclude)
	}
	if cfg.Database == nil || cfg.Database.Port != 5432 {
		t.Errorf("database = %+v", cfg.Database)
	}
	if len(cfg.System.CommandOutputs) != 1 {
		t.Fatalf("command outputs = %+v", cfg.System.CommandOutputs)
	}
	if cfg.System.CommandOutputs[0].IsEnabled() {
		t.Error("explicit enabled=false must stick")
	}
}

func TestLoadExplicitZeroRetention(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleTOML))
	if err != nil {
		t.Fatal(err)
	}
	// retention_days = 0 is an explicit choice, not an absent value.
	if cfg.Backup.RetentionDays == nil {
		t.Fatal("retention_days should be set")
	}
	if cfg.Backup.RetentionDaysOrDefault() != 0 {
		t.Errorf("retention = %d", cfg.Backup.RetentionDaysOrDefault())
	}
}

func TestDefaultsWhenAbsent(t *testing.T) {
	minimal := `
[storage]
provider = "s3"
bucket = "b"
`
	cfg, err := Load(writeConfig(t, minimal))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backup.RetentionDaysOrDefault() != DefaultRetentionDays {
		t.Errorf("retention = %d", cfg.Backup.RetentionDaysOrDefault())
	}
	if cfg.Backup.CompressionLevelOrDefault() != DefaultCompressionLevel {
		t.Errorf("compression = %d", cfg.Backup.CompressionLevelOrDefault())
	}
	if cfg.Storage.Region != DefaultRegion {
		t.Errorf("region = %q", cfg.Storage.Region)
	}
	if cfg.System != nil {
		t.Error("absent [system] stays nil")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error")
	}
}

func TestValidate(t *testing.T) {
	if err := ValidateStorage(&StorageConfig{}); err == nil {
		t.Error("empty storage must fail")
	}
	if err := ValidateStorage(&StorageConfig{Provider: "s3", Bucket: "b"}); err != nil {
		t.Errorf("valid storage: %v", err)
	}
	if err := ValidateBackup(&BackupConfig{LocalBackupDir: "/x"}); err == nil {
		t.Error("missing project_path must fail")
	}
	if err := ValidateBackup(&BackupConfig{LocalBackupDir: "/x", ProjectPath: "/y"}); err != nil {
		t.Errorf("valid backup: %v", err)
	}
}
