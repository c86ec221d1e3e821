package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Bridge  BridgeConfig  `toml:"bridge"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// BridgeConfig contains MCP bridge settings.
type BridgeConfig struct {
	Name                  string          `toml:"name"`
	MountPath             string          `toml:"mount_path"`
	JSONResponse          bool            `toml:"json_response"`
	RequestTimeoutSeconds int             `toml:"request_timeout_seconds"`
	Proxy                 []ProxyConfig   `toml:"proxy"`
	OpenAPI               []OpenAPIConfig `toml:"openapi"`
}

// ProxyConfig declares one remote endpoint exposed as a tool.
type ProxyConfig struct {
	Name        string            `toml:"name"`
	Description string            `toml:"description"`
	URL         string            `toml:"url"`
	Method      string            `toml:"method"`
	Structure   map[string]string `toml:"structure"` // param name -> path|query|body
}

// OpenAPIConfig declares one OpenAPI descriptor to bind at startup.
type OpenAPIConfig struct {
	URL             string   `toml:"url"`
	BaseURL         string   `toml:"base_url"`
	IncludePaths    []string `toml:"include_paths"`
	ExcludePaths    []string `toml:"exclude_paths"`
	NameFromSummary bool     `toml:"name_from_summary"`
}

// StorageConfig contains storage layer settings.
type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig contains BadgerDB-specific settings.
type BadgerConfig struct {
	Path string `toml:"path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies BRIDGE_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if port := os.Getenv("BRIDGE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("BRIDGE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if mountPath := os.Getenv("BRIDGE_MOUNT_PATH"); mountPath != "" {
		config.Bridge.MountPath = mountPath
	}
	if badgerPath := os.Getenv("BRIDGE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if level := os.Getenv("BRIDGE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
