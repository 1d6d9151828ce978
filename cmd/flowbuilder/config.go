package main

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds all flowbuilder server configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	ListenAddr  string `json:"listen_addr"`
	DBPath      string `json:"db_path"`
	PostgresURL string `json:"postgres_url"`
	LogLevel    string `json:"log_level"`
	LogFormat   string `json:"log_format"` // "text" or "json"
}

func defaultConfig() Config {
	return Config{
		ListenAddr: ":4200",
		DBPath:     filepath.Join(flowbuilderDir(), "flowbuilder.db"),
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

func flowbuilderDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".flowbuilder"
	}
	return filepath.Join(home, ".flowbuilder")
}

func settingsPath() string {
	return filepath.Join(flowbuilderDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("FLOWBUILDER_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("FLOWBUILDER_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("FLOWBUILDER_POSTGRES_URL"); v != "" {
		cfg.PostgresURL = v
	}
	if v := os.Getenv("FLOWBUILDER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("FLOWBUILDER_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}
