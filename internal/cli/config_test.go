package cli

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
		check   func(t *testing.T, cfg Config)
	}{
		{
			name: "full",
			content: `
catalog = "/etc/flowgraph/catalog.toml"

[serve]
addr = ":9000"

[cache]
backend = "redis"
redis_url = "redis://localhost:6379/0"
ttl = "90m"
`,
			check: func(t *testing.T, cfg Config) {
				if cfg.Catalog != "/etc/flowgraph/catalog.toml" || cfg.Serve.Addr != ":9000" {
					t.Errorf("cfg = %+v", cfg)
				}
				if cfg.Cache.Backend != backendRedis || cfg.Cache.TTL.Duration != 90*time.Minute {
					t.Errorf("cache = %+v", cfg.Cache)
				}
			},
		},
		{
			name:    "partial keeps defaults",
			content: "[cache]\nbackend = \"none\"\n",
			check: func(t *testing.T, cfg Config) {
				if cfg.Serve.Addr != defaultAddr || cfg.Cache.TTL.Duration != 24*time.Hour {
					t.Errorf("defaults lost: %+v", cfg)
				}
			},
		},
		{name: "unknown key", content: "[serve]\nport = 80\n", wantErr: "unknown key"},
		{name: "unknown backend", content: "[cache]\nbackend = \"memcached\"\n", wantErr: "memcached"},
		{name: "redis without url", content: "[cache]\nbackend = \"redis\"\n", wantErr: "redis_url"},
		{name: "negative ttl", content: "[cache]\nttl = \"-1h\"\n", wantErr: "negative"},
		{name: "bad duration", content: "[cache]\nttl = \"soon\"\n", wantErr: "load config"},
		{name: "bad toml", content: "catalog = \n", wantErr: "load config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "config.toml", tt.content)
			cfg, err := loadConfig(path, true)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfigMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, err := loadConfig(path, false)
	if err != nil {
		t.Fatalf("implicit missing config: %v", err)
	}
	if cfg != defaultConfig() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}

	if _, err := loadConfig(path, true); err == nil {
		t.Error("explicit missing config should fail")
	}
}

func TestConfigPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_CACHE_HOME", "/xdg/cache")

	got, err := configPath()
	if err != nil || got != filepath.Join("/xdg/config", "flowgraph", "config.toml") {
		t.Errorf("configPath() = %q, %v", got, err)
	}
	got, err = cacheDir()
	if err != nil || got != filepath.Join("/xdg/cache", "flowgraph") {
		t.Errorf("cacheDir() = %q, %v", got, err)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("HOME", "/home/ada")
	got, _ = configPath()
	if got != filepath.Join("/home/ada", ".config", "flowgraph", "config.toml") {
		t.Errorf("configPath() = %q", got)
	}
	got, _ = cacheDir()
	if got != filepath.Join("/home/ada", ".cache", "flowgraph") {
		t.Errorf("cacheDir() = %q", got)
	}
}

func TestDurationText(t *testing.T) {
	var d duration
	if err := d.UnmarshalText([]byte("1h30m")); err != nil {
		t.Fatal(err)
	}
	text, _ := d.MarshalText()
	if string(text) != "1h30m0s" {
		t.Errorf("MarshalText() = %q", text)
	}
}
