package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/minikv-go/internal/infra/confloader"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if !cfg.Server.TCP.Enabled || cfg.Server.TCP.Addr != DefaultTCPAddr {
		t.Errorf("TCP = %+v", cfg.Server.TCP)
	}
	if !cfg.Server.TCP.Greeting {
		t.Error("greeting should be on by default")
	}
	if !cfg.Server.HTTP.Enabled || cfg.Server.HTTP.Addr != DefaultHTTPAddr || !cfg.Server.HTTP.WebSocket {
		t.Errorf("HTTP = %+v", cfg.Server.HTTP)
	}
	if cfg.Storage.Backend != BackendFile {
		t.Errorf("Backend = %q, want %q", cfg.Storage.Backend, BackendFile)
	}
	if cfg.Storage.SweepInterval != time.Second {
		t.Errorf("SweepInterval = %v", cfg.Storage.SweepInterval)
	}
	if cfg.Storage.SaveOnShutdown {
		t.Error("save_on_shutdown should be off by default")
	}
	if cfg.Log.Level != DefaultLogLevel || cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log = %+v", cfg.Log)
	}

	if err := Verify(cfg); err != nil {
		t.Errorf("Verify(Default()) = %v", err)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{"unknown backend", func(c *ServerConfig) { c.Storage.Backend = "s3" }, "storage.backend"},
		{"file without path", func(c *ServerConfig) { c.Storage.SnapshotPath = "" }, "snapshot_path"},
		{"badger without dir", func(c *ServerConfig) {
			c.Storage.Backend = BackendBadger
			c.Storage.BadgerDir = ""
		}, "badger_dir"},
		{"none backend needs no path", func(c *ServerConfig) {
			c.Storage.Backend = BackendNone
			c.Storage.SnapshotPath = ""
		}, ""},
		{"zero sweep interval", func(c *ServerConfig) { c.Storage.SweepInterval = 0 }, "sweep_interval"},
		{"shard count not power of two", func(c *ServerConfig) { c.Storage.ShardCount = 12 }, "shard_count"},
		{"zero shard count", func(c *ServerConfig) { c.Storage.ShardCount = 0 }, "shard_count"},
		{"short encryption key", func(c *ServerConfig) { c.Storage.EncryptionKey = "short" }, "encryption_key"},
		{"unknown algorithm", func(c *ServerConfig) { c.Storage.EncryptionAlgorithm = "rot13" }, "encryption_algorithm"},
		{"tcp addr missing", func(c *ServerConfig) { c.Server.TCP.Addr = "" }, "server.tcp.addr"},
		{"tcp disabled addr missing", func(c *ServerConfig) {
			c.Server.TCP.Enabled = false
			c.Server.TCP.Addr = ""
		}, ""},
		{"negative rate limit", func(c *ServerConfig) { c.Server.TCP.RateLimit = -1 }, "rate_limit"},
		{"zero max line", func(c *ServerConfig) { c.Server.TCP.MaxLineBytes = 0 }, "max_line_bytes"},
		{"zero timeout", func(c *ServerConfig) { c.Server.TCP.ReadTimeout = 0 }, "timeouts"},
		{"http addr missing", func(c *ServerConfig) { c.Server.HTTP.Addr = "" }, "server.http.addr"},
		{"tls cert without key", func(c *ServerConfig) { c.Server.HTTP.TLSCertFile = "cert.pem" }, "tls_cert_file"},
		{"local socket missing", func(c *ServerConfig) {
			c.Server.Local.Enabled = true
			c.Server.Local.Socket = ""
		}, "server.local.socket"},
		{"addr conflict", func(c *ServerConfig) { c.Server.HTTP.Addr = c.Server.TCP.Addr }, "conflict"},
		{"bad log level", func(c *ServerConfig) { c.Log.Level = "verbose" }, "log.level"},
		{"bad log format", func(c *ServerConfig) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Verify(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Verify() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Verify() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = "bogus"
	cfg.Log.Format = "xml"

	err := Verify(cfg)
	if err == nil {
		t.Fatal("Verify() = nil")
	}
	if !strings.Contains(err.Error(), "storage.backend") || !strings.Contains(err.Error(), "log.format") {
		t.Errorf("Verify() = %v, want both problems", err)
	}
}

func TestSanitize(t *testing.T) {
	cfg := Default()
	cfg.Storage.EncryptionKey = "super-secret-key-1234567890"

	sanitized := Sanitize(cfg)

	if cfg.Storage.EncryptionKey != "super-secret-key-1234567890" {
		t.Error("original config should not be modified")
	}
	got := sanitized.Storage.EncryptionKey
	if got == cfg.Storage.EncryptionKey || len(got) != len(cfg.Storage.EncryptionKey) {
		t.Errorf("masked key = %q", got)
	}
	if !strings.HasPrefix(got, "su") || !strings.HasSuffix(got, "90") {
		t.Errorf("masked key = %q, want first and last two characters kept", got)
	}

	if Sanitize(Default()).Storage.EncryptionKey != "" {
		t.Error("empty key should stay empty")
	}
	if maskSecret("abc") != "****" {
		t.Errorf("maskSecret(short) = %q", maskSecret("abc"))
	}
}

func TestLoad_DefaultsFileEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minikv.yaml")
	yaml := `
server:
  tcp:
    addr: "0.0.0.0:7000"
    read_timeout: 5s
storage:
  backend: badger
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MINIKV_SERVER_TCP_RATE_LIMIT", "50")
	t.Setenv("MINIKV_STORAGE_SAVE_ON_SHUTDOWN", "true")
	t.Setenv("MINIKV_LOG_LEVEL", "warn")

	loader := confloader.NewLoader(
		confloader.WithDefaults(DefaultMap()),
		confloader.WithConfigFile(path),
		confloader.WithOverrides(map[string]any{"server.http.addr": "127.0.0.1:9999"}),
	)

	var cfg ServerConfig
	if err := loader.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.TCP.Addr != "0.0.0.0:7000" {
		t.Errorf("tcp.addr = %q (file)", cfg.Server.TCP.Addr)
	}
	if cfg.Server.TCP.ReadTimeout != 5*time.Second {
		t.Errorf("tcp.read_timeout = %v (file)", cfg.Server.TCP.ReadTimeout)
	}
	if cfg.Server.TCP.WriteTimeout != DefaultTCPWriteTimeout {
		t.Errorf("tcp.write_timeout = %v (default)", cfg.Server.TCP.WriteTimeout)
	}
	if cfg.Server.TCP.RateLimit != 50 {
		t.Errorf("tcp.rate_limit = %v (env)", cfg.Server.TCP.RateLimit)
	}
	if !cfg.Storage.SaveOnShutdown {
		t.Error("storage.save_on_shutdown should come from env")
	}
	if cfg.Storage.Backend != BackendBadger {
		t.Errorf("storage.backend = %q (file)", cfg.Storage.Backend)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q, env should beat file", cfg.Log.Level)
	}
	if cfg.Server.HTTP.Addr != "127.0.0.1:9999" {
		t.Errorf("http.addr = %q (override)", cfg.Server.HTTP.Addr)
	}
	if cfg.Storage.ShardCount != DefaultShardCount {
		t.Errorf("storage.shard_count = %d (default)", cfg.Storage.ShardCount)
	}
}
