package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel     int    `yaml:"log_level"`
	DataDir      string `yaml:"data_dir"`
	DownloadsDir string `yaml:"downloads_dir"`

	Search  SearchConfig  `yaml:"search"`
	Tokens  TokensConfig  `yaml:"tokens"`
	Server  ServerConfig  `yaml:"server"`
	Archive ArchiveConfig `yaml:"archive"`
}

type SearchConfig struct {
	MaxResults int `yaml:"max_results"`
}

type TokensConfig struct {
	TTLMinutes int `yaml:"ttl_minutes"`
}

type ServerConfig struct {
	// Port for the stats API. Empty disables the server.
	Port string `yaml:"port"`
}

type ArchiveConfig struct {
	// Type of archive: "local", "gcs", or empty to disable archiving.
	Type string `yaml:"type"`

	// Local archive options
	Dir string `yaml:"dir"`

	// GCS archive options
	Bucket          string `yaml:"bucket"`
	ObjectPrefix    string `yaml:"object_prefix"`
	CredentialsFile string `yaml:"credentials_file"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config *Config

	// Unmarshal the YAML data into the struct
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}

	// Set defaults if not provided
	if config.DataDir == "" {
		config.DataDir = "data"
	}

	if config.DownloadsDir == "" {
		config.DownloadsDir = "downloads"
	}

	if config.Search.MaxResults == 0 {
		config.Search.MaxResults = 5
	}

	if config.Tokens.TTLMinutes == 0 {
		config.Tokens.TTLMinutes = 15
	}

	if config.Archive.Type == "local" && config.Archive.Dir == "" {
		config.Archive.Dir = "archive"
	}

	return config, nil
}

// TokenTTL returns the configured download token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Tokens.TTLMinutes) * time.Minute
}
