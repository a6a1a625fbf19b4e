// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port            int           `yaml:"port"`
	GRPCPort        int           `yaml:"grpcPort"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type DatabaseConfig struct {
	SSLMode string `yaml:"sslMode"`
	// RetentionTime is how long analysis runs are kept. Zero keeps them forever.
	RetentionTime   time.Duration `yaml:"retentionTime"`
	CleanupInterval time.Duration `yaml:"cleanupInterval"`
}

type AnalyzerConfig struct {
	Workers     int   `yaml:"workers"`
	MaxFileSize int64 `yaml:"maxFileSize"`
}

type Config struct {
	Server         ServerConfig   `yaml:"server"`
	Database       DatabaseConfig `yaml:"database"`
	Authentication struct {
		OidcServer      string `yaml:"oidcServer"`
		OidcServerRealm string `yaml:"oidcServerRealm"`
	} `yaml:"authentication"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Rules    struct {
		File string `yaml:"file"`
	} `yaml:"rules"`
}

// Default returns the configuration used when no file is given. Fields left
// empty in a config file are filled from it as well.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			GRPCPort:        9090,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			SSLMode:         "prefer",
			CleanupInterval: time.Hour,
		},
		Analyzer: AnalyzerConfig{
			Workers:     4,
			MaxFileSize: 16 << 20,
		},
	}
}

func LoadConfig(file string) (Config, error) {
	yfile, err := os.ReadFile(file)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read file %q: %w", file, err)
	}

	config := Default()
	err = yaml.Unmarshal(yfile, &config)
	if err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal: %w", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("failed to validate config %q: %w", file, err)
	}
	return config, nil
}

func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.GRPCPort <= 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc port: %d", c.Server.GRPCPort)
	}
	if c.Analyzer.Workers <= 0 {
		return errors.New("analyzer workers must be positive")
	}
	if c.Analyzer.MaxFileSize < 0 {
		return errors.New("analyzer max file size must not be negative")
	}
	if c.Database.RetentionTime > 0 && c.Database.CleanupInterval <= 0 {
		return errors.New("database cleanup interval must be positive when retention is enabled")
	}
	if (c.Authentication.OidcServer == "") != (c.Authentication.OidcServerRealm == "") {
		return errors.New("authentication requires both oidc server and realm")
	}
	return nil
}

// AuthEnabled reports whether requests must carry a bearer token.
func (c Config) AuthEnabled() bool {
	return c.Authentication.OidcServer != "" && c.Authentication.OidcServerRealm != ""
}
