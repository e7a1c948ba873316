package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const exampleConfig = `# ZestyBackup configuration

[storage]
# One of: s3, aws, contabo, digitalocean, wasabi, minio, r2,
# gcs, azure, b2, googledrive, onedrive, dropbox, box, pcloud, mega
provider = "s3"
endpoint = "https://s3.example.com"
region = "us-east-1"
bucket = "my-backups"
access_key = ""          # also the OAuth/access token for drive-style providers and pcloud
secret_key = ""
# account_id = ""        # r2, b2
# account_name = ""      # azure, mega
# account_key = ""       # azure, mega (or AZURE_STORAGE_ACCOUNT_KEY)
# application_key = ""   # b2
# bucket_id = ""         # b2 bucket id; folder for drive-style providers
# credentials_path = ""  # gcs service account JSON

[backup]
local_backup_dir = "/var/backups/zesty"
project_path = "/srv/myproject"
additional_paths = []
retention_days = 7
compression_level = 3
exclude = ["node_modules", ".git", "target"]

# [database]
# enabled = true
# type = "postgres"      # postgres, mysql, mariadb, mongodb, redis, cassandra, scylla, sqlite
# host = "localhost"
# port = 5432
# database = "myapp"
# username = "myapp"
# password = ""          # or DB_PASSWORD / DATABASE_URL in .env

# [system]
# systemd_services = ["myapp.service"]
# systemd_timers = []
#
# [[system.command_outputs]]
# command = "dpkg"
# args = ["--get-selections"]
# output_file = "packages.txt"
#
# [system.presets]
# nginx_enabled = true
# crontab_enabled = true
# user_configs = [".bashrc", ".ssh/config"]
# etc_files = ["hosts", "fstab"]

# [logging]
# level = "info"
# log_dir = "/var/log/zesty-backup"
`

var generateConfigOutput string

func init() {
	rootCmd.AddCommand(generateConfigCmd)
	generateConfigCmd.Flags().StringVar(&generateConfigOutput, "output", "config.toml", "Where to write the example configuration")
}

var generateConfigCmd = &cobra.Command{
	Use:   "generate-config",
	Short: "Write a commented example configuration file",
	RunE:  runGenerateConfig,
}

func runGenerateConfig(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(generateConfigOutput); err == nil {
		return fmt.Errorf("%s already exists, refusing to overwrite", generateConfigOutput)
	}
	if err := os.WriteFile(generateConfigOutput, []byte(exampleConfig), 0o644); err != nil {
		return err
	}
	cmd.Printf("Wrote %s\n", generateConfigOutput)
	return nil
}
