package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		Port:         "8080",
		StoreBackend: "memory",
		LogLevel:     "info",
		LogFormat:    "json",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid memory backend", mutate: func(c *Config) {}},
		{
			name:   "valid sqlite backend",
			mutate: func(c *Config) { c.StoreBackend = "sqlite"; c.SQLiteDBPath = "./data/test.db" },
		},
		{
			name:   "valid postgres backend",
			mutate: func(c *Config) { c.StoreBackend = "postgres"; c.DatabaseURL = "postgres://localhost/duetrack" },
		},
		{
			name:    "non-numeric port",
			mutate:  func(c *Config) { c.Port = "abc" },
			wantErr: "invalid port 'abc'",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Port = "70000" },
			wantErr: "must be between 1 and 65535",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.StoreBackend = "firestore" },
			wantErr: "invalid store backend 'firestore'",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.StoreBackend = "sqlite"; c.SQLiteDBPath = "" },
			wantErr: "SQLITE_DB_PATH cannot be empty",
		},
		{
			name:    "postgres without url",
			mutate:  func(c *Config) { c.StoreBackend = "postgres" },
			wantErr: "DATABASE_URL is required",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.LogFormat = "xml" },
			wantErr: "invalid log format 'xml'",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: "invalid log level 'verbose'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("default port = %s", cfg.Port)
	}
	if cfg.StoreBackend != "memory" {
		t.Errorf("default backend = %s", cfg.StoreBackend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}
