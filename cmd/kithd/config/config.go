// Package config loads kithd's YAML configuration file: read the file,
// unmarshal, apply env overrides, fill defaults.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the options spec.md §6 names, plus Debug, which selects
// zap's development logger.
type Config struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	BaseURL          string `yaml:"base_url"`
	Addressbook      string `yaml:"addressbook"`
	StorePath        string `yaml:"store_path"`
	AuthUsername     string `yaml:"auth_username"`
	AuthPasswordHash string `yaml:"auth_password_hash"`
	Debug            bool   `yaml:"debug"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if host := os.Getenv("KITH_HOST"); host != "" {
		cfg.Host = host
	}
	if storePath := os.Getenv("KITH_STORE_PATH"); storePath != "" {
		cfg.StorePath = storePath
	}
	if user := os.Getenv("KITH_AUTH_USERNAME"); user != "" {
		cfg.AuthUsername = user
	}
	if hash := os.Getenv("KITH_AUTH_PASSWORD_HASH"); hash != "" {
		cfg.AuthPasswordHash = hash
	}

	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8083
	}
	if cfg.Addressbook == "" {
		cfg.Addressbook = "personal"
	}
	if cfg.StorePath == "" {
		cfg.StorePath = "kith.db"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = ""
	}

	return &cfg, nil
}
