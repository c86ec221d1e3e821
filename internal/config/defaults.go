package config

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 4261,
			Host: "localhost",
		},
		Bridge: BridgeConfig{
			Name:                  "mcpbridge",
			MountPath:             "/mcp",
			JSONResponse:          true,
			RequestTimeoutSeconds: 300,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/mcpbridge",
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
