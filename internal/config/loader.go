package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load reads and resolves the configuration file at path. The returned
// Config is immutable for the rest of the process: Resolve has already
// folded every ambient fallback (environment variables, the project .env
// file) into it.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := Unmarshal(v)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	Resolve(cfg)
	return cfg, nil
}
