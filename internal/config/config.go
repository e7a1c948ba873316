package config

import "github.com/spf13/viper"

const (
	DefaultRetentionDays    = 7
	DefaultCompressionLevel = 3
	DefaultRegion           = "us-east-1"
)

type Config struct {
	Storage  StorageConfig   `mapstructure:"storage"`
	Backup   BackupConfig    `mapstructure:"backup"`
	Database *DatabaseConfig `mapstructure:"database"`
	System   *SystemConfig   `mapstructure:"system"`
	Logging  *LoggingConfig  `mapstructure:"logging"`

	// CurrentUser and HomeDir are resolved once at startup; no collector
	// reads the environment directly.
	CurrentUser string `mapstructure:"-"`
	HomeDir     string `mapstructure:"-"`
}

type StorageConfig struct {
	Provider        string `mapstructure:"provider"`
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKey       string `mapstructure:"access_key"`
	SecretKey       string `mapstructure:"secret_key"`
	AccountID       string `mapstructure:"account_id"`
	AccountName     string `mapstructure:"account_name"`
	AccountKey      string `mapstructure:"account_key"`
	ApplicationKey  string `mapstructure:"application_key"`
	BucketID        string `mapstructure:"bucket_id"`
	CredentialsPath string `mapstructure:"credentials_path"`
	TenantID        string `mapstructure:"tenant_id"`
}

type BackupConfig struct {
	LocalBackupDir   string   `mapstructure:"local_backup_dir"`
	ProjectPath      string   `mapstructure:"project_path"`
	AdditionalPaths  []string `mapstructure:"additional_paths"`
	RetentionDays    *int     `mapstructure:"retention_days"`
	CompressionLevel *int     `mapstructure:"compression_level"`
	Exclude          []string `mapstructure:"exclude"`
}

// RetentionDaysOrDefault keeps the distinction between an absent value
// (default 7) and an explicit 0, which means "delete everything".
func (b *BackupConfig) RetentionDaysOrDefault() int {
	if b.RetentionDays == nil {
		return DefaultRetentionDays
	}
	return *b.RetentionDays
}

func (b *BackupConfig) CompressionLevelOrDefault() int {
	if b.CompressionLevel == nil {
		return DefaultCompressionLevel
	}
	return *b.CompressionLevel
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Type     string `mapstructure:"type"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type CommandOutputConfig struct {
	Command    string   `mapstructure:"command"`
	Args       []string `mapstructure:"args"`
	OutputFile string   `mapstructure:"output_file"`
	Enabled    *bool    `mapstructure:"enabled"`
}

// IsEnabled defaults to true when the flag is absent.
func (c *CommandOutputConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

type SystemConfig struct {
	SystemdServices []string              `mapstructure:"systemd_services"`
	SystemdTimers   []string              `mapstructure:"systemd_timers"`
	CommandOutputs  []CommandOutputConfig `mapstructure:"command_outputs"`
	Presets         *PresetsConfig        `mapstructure:"presets"`
}

type PresetsConfig struct {
	NginxEnabled    bool     `mapstructure:"nginx_enabled"`
	NginxSites      []string `mapstructure:"nginx_sites"`
	CrontabEnabled  bool     `mapstructure:"crontab_enabled"`
	CrontabUser     string   `mapstructure:"crontab_user"`
	UserConfigs     []string `mapstructure:"user_configs"`
	UserConfigsHome string   `mapstructure:"user_configs_home"`
	EtcFiles        []string `mapstructure:"etc_files"`
	EtcDirs         []string `mapstructure:"etc_dirs"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	LogDir string `mapstructure:"log_dir"`
}

func Unmarshal(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
