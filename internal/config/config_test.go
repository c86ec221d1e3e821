package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Server.Port != 4261 {
		t.Errorf("expected default port 4261, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("expected default host localhost, got %s", cfg.Server.Host)
	}
	if cfg.Bridge.Name != "mcpbridge" {
		t.Errorf("expected default bridge name mcpbridge, got %s", cfg.Bridge.Name)
	}
	if cfg.Bridge.MountPath != "/mcp" {
		t.Errorf("expected default mount path /mcp, got %s", cfg.Bridge.MountPath)
	}
	if !cfg.Bridge.JSONResponse {
		t.Error("expected JSON responses enabled by default")
	}
	if cfg.Bridge.RequestTimeoutSeconds != 300 {
		t.Errorf("expected default request timeout 300, got %d", cfg.Bridge.RequestTimeoutSeconds)
	}
	if cfg.Storage.Badger.Path != "./data/mcpbridge" {
		t.Errorf("expected default badger path ./data/mcpbridge, got %s", cfg.Storage.Badger.Path)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFiles_NoFiles(t *testing.T) {
	cfg, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles with no files should not error: %v", err)
	}
	if cfg.Server.Port != 4261 {
		t.Errorf("expected default port 4261, got %d", cfg.Server.Port)
	}
}

func TestLoadFromFiles_ValidTOML(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "test.toml")

	content := `
[server]
port = 9090
host = "0.0.0.0"

[bridge]
name = "testbridge"
mount_path = "/bridge"
request_timeout_seconds = 30

[[bridge.proxy]]
name = "get_quote"
url = "https://api.example.com/quote/{ticker}"
method = "GET"

[bridge.proxy.structure]
ticker = "path"

[[bridge.openapi]]
url = "https://api.example.com/openapi.json"
include_paths = ["/quotes"]
name_from_summary = true

[storage.badger]
path = "/tmp/test-db"

[logging]
level = "debug"
`
	if err := os.WriteFile(tomlPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFiles(tomlPath)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Bridge.Name != "testbridge" {
		t.Errorf("expected bridge name testbridge, got %s", cfg.Bridge.Name)
	}
	if cfg.Bridge.MountPath != "/bridge" {
		t.Errorf("expected mount path /bridge, got %s", cfg.Bridge.MountPath)
	}
	if cfg.Bridge.RequestTimeoutSeconds != 30 {
		t.Errorf("expected request timeout 30, got %d", cfg.Bridge.RequestTimeoutSeconds)
	}

	if len(cfg.Bridge.Proxy) != 1 {
		t.Fatalf("expected 1 proxy entry, got %d", len(cfg.Bridge.Proxy))
	}
	proxy := cfg.Bridge.Proxy[0]
	if proxy.Name != "get_quote" || proxy.Method != "GET" {
		t.Errorf("unexpected proxy entry: %+v", proxy)
	}
	if proxy.Structure["ticker"] != "path" {
		t.Errorf("expected ticker mapped to path, got %v", proxy.Structure)
	}

	if len(cfg.Bridge.OpenAPI) != 1 {
		t.Fatalf("expected 1 openapi entry, got %d", len(cfg.Bridge.OpenAPI))
	}
	oa := cfg.Bridge.OpenAPI[0]
	if oa.URL != "https://api.example.com/openapi.json" || !oa.NameFromSummary {
		t.Errorf("unexpected openapi entry: %+v", oa)
	}
	if len(oa.IncludePaths) != 1 || oa.IncludePaths[0] != "/quotes" {
		t.Errorf("unexpected include paths: %v", oa.IncludePaths)
	}

	if cfg.Storage.Badger.Path != "/tmp/test-db" {
		t.Errorf("expected badger path /tmp/test-db, got %s", cfg.Storage.Badger.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFiles_LaterFileOverrides(t *testing.T) {
	dir := t.TempDir()

	base := filepath.Join(dir, "base.toml")
	if err := os.WriteFile(base, []byte("[server]\nport = 8000\nhost = \"base\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	override := filepath.Join(dir, "override.toml")
	if err := os.WriteFile(override, []byte("[server]\nport = 8001\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFiles(base, override)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}
	if cfg.Server.Port != 8001 {
		t.Errorf("expected later file to win, got port %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "base" {
		t.Errorf("expected untouched value kept, got host %s", cfg.Server.Host)
	}
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles("/nonexistent/config.toml")
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadFromFiles_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	badPath := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(badPath, []byte("not [valid toml"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFromFiles(badPath)
	if err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BRIDGE_SERVER_PORT", "7777")
	t.Setenv("BRIDGE_SERVER_HOST", "0.0.0.0")
	t.Setenv("BRIDGE_MOUNT_PATH", "/tools")
	t.Setenv("BRIDGE_BADGER_PATH", "/tmp/env-db")
	t.Setenv("BRIDGE_LOG_LEVEL", "warn")

	cfg, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if cfg.Server.Port != 7777 {
		t.Errorf("expected env port 7777, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected env host 0.0.0.0, got %s", cfg.Server.Host)
	}
	if cfg.Bridge.MountPath != "/tools" {
		t.Errorf("expected env mount path /tools, got %s", cfg.Bridge.MountPath)
	}
	if cfg.Storage.Badger.Path != "/tmp/env-db" {
		t.Errorf("expected env badger path /tmp/env-db, got %s", cfg.Storage.Badger.Path)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected env log level warn, got %s", cfg.Logging.Level)
	}
}

func TestEnvOverrides_InvalidPortIgnored(t *testing.T) {
	t.Setenv("BRIDGE_SERVER_PORT", "not-a-number")

	cfg, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}
	if cfg.Server.Port != 4261 {
		t.Errorf("expected default port kept, got %d", cfg.Server.Port)
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := NewDefaultConfig()

	ApplyFlagOverrides(cfg, 9999, "flag-host")
	if cfg.Server.Port != 9999 || cfg.Server.Host != "flag-host" {
		t.Errorf("flag overrides not applied: %d %s", cfg.Server.Port, cfg.Server.Host)
	}

	ApplyFlagOverrides(cfg, 0, "")
	if cfg.Server.Port != 9999 || cfg.Server.Host != "flag-host" {
		t.Errorf("zero-value flags should not override: %d %s", cfg.Server.Port, cfg.Server.Host)
	}
}
