package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Server struct {
		Addr        string        `koanf:"addr"`
		ReadTimeout time.Duration `koanf:"read_timeout"`
		Enabled     bool          `koanf:"enabled"`
	} `koanf:"server"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func testDefaults() map[string]any {
	return map[string]any{
		"server.addr":         "127.0.0.1:6380",
		"server.read_timeout": 30 * time.Second,
		"server.enabled":      true,
		"log.level":           "info",
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "minikv.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoader_Defaults(t *testing.T) {
	var cfg testConfig
	l := NewLoader(WithEnvPrefix("MINIKV_TEST_NONE_"), WithDefaults(testDefaults()))
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:6380" || cfg.Server.ReadTimeout != 30*time.Second || !cfg.Server.Enabled {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if !l.IsLoaded() {
		t.Error("IsLoaded() = false after Load")
	}
}

func TestLoader_Priority(t *testing.T) {
	path := writeFile(t, `
server:
  addr: "0.0.0.0:7000"
  read_timeout: 10s
log:
  level: warn
`)
	t.Setenv("MINIKV_SERVER_READ_TIMEOUT", "5s")
	t.Setenv("MINIKV_SERVER_ENABLED", "false")

	var cfg testConfig
	l := NewLoader(
		WithConfigFile(path),
		WithDefaults(testDefaults()),
		WithOverrides(map[string]any{"log.level": "debug"}),
	)
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"file beats default", cfg.Server.Addr, "0.0.0.0:7000"},
		{"env beats file", cfg.Server.ReadTimeout, 5 * time.Second},
		{"env bool", cfg.Server.Enabled, false},
		{"override beats file", cfg.Log.Level, "debug"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoader_EnvUnderscoreKeys(t *testing.T) {
	t.Setenv("MINIKV_SERVER_READ_TIMEOUT", "1m")

	l := NewLoader(WithDefaults(testDefaults()))
	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatal(err)
	}

	if got := l.GetString("server.read_timeout"); got != "1m" {
		t.Errorf("server.read_timeout = %q, want 1m", got)
	}
	for _, k := range l.Keys() {
		if k == "server.read.timeout" {
			t.Error("underscore key was split into server.read.timeout")
		}
	}
}

func TestLoader_MissingFile(t *testing.T) {
	l := NewLoader(WithConfigFile(filepath.Join(t.TempDir(), "absent.yaml")))
	var cfg testConfig
	if err := l.Load(&cfg); err == nil {
		t.Error("Load() with missing file should fail")
	}
}

func TestLoader_InvalidYAML(t *testing.T) {
	path := writeFile(t, "server: [unclosed")
	l := NewLoader(WithConfigFile(path))
	var cfg testConfig
	if err := l.Load(&cfg); err == nil {
		t.Error("Load() with invalid YAML should fail")
	}
}

func TestMapProvider(t *testing.T) {
	m := mapProvider{"a.b": 1, "c": "x"}

	if _, err := m.ReadBytes(); err != ErrReadBytesNotSupported {
		t.Errorf("ReadBytes() error = %v", err)
	}

	got, err := m.Read()
	if err != nil {
		t.Fatal(err)
	}
	nested, ok := got["a"].(map[string]any)
	if !ok || nested["b"] != 1 || got["c"] != "x" {
		t.Errorf("Read() = %v, want nested a.b", got)
	}
}
