package main

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fluorfn/runtime/pkg/pool"
)

// Config is functiond's top-level process configuration. Only the front
// door and bootstrap wiring read this; the core packages only ever see
// the narrower *pool.Config.
type Config struct {
	ListenAddr       string      `yaml:"listen_addr"`
	SQLiteDSN        string      `yaml:"sqlite_dsn"`
	WasmStoragePath  string      `yaml:"wasm_storage_path"`
	EnableLogColors  bool        `yaml:"enable_log_colors"`
	Pool             pool.Config `yaml:"pool"`
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// defaultConfig mirrors the reference defaults, overridable by environment
// variables and then by an optional YAML file.
func defaultConfig() *Config {
	cfg := &Config{
		ListenAddr:      getEnvDefault("FUNCTIOND_LISTEN_ADDR", ":8080"),
		SQLiteDSN:       getEnvDefault("FUNCTIOND_SQLITE_DSN", "functiond.db"),
		WasmStoragePath: getEnvDefault("WASM_STORAGE_PATH", "./wasm-storage"),
		EnableLogColors: getEnvBoolDefault("FUNCTIOND_LOG_COLORS", true),
		Pool:            *pool.DefaultConfig(),
	}
	return cfg
}

// loadConfig applies an optional YAML file on top of the environment-aware
// defaults.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Pool.ApplyDefaults()
	return cfg, nil
}
