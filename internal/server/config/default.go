package config

import "time"

// Default configuration values.
const (
	DefaultTCPAddr         = "127.0.0.1:6380"
	DefaultTCPReadTimeout  = 30 * time.Second
	DefaultTCPWriteTimeout = 30 * time.Second
	DefaultTCPIdleTimeout  = 5 * time.Minute
	DefaultTCPRateLimit    = 1000
	DefaultMaxLineBytes    = 64 * 1024

	DefaultHTTPAddr = "127.0.0.1:8080"

	DefaultLocalSocket = "./data/minikv.sock"

	DefaultBackend             = BackendFile
	DefaultSnapshotPath        = "./data/minikv.json"
	DefaultBadgerDir           = "./data/badger"
	DefaultSweepInterval       = time.Second
	DefaultShardCount          = 32
	DefaultEncryptionAlgorithm = "aes-gcm"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendNone   = "none"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			TCP: TCPConfig{
				Enabled:      true,
				Addr:         DefaultTCPAddr,
				ReadTimeout:  DefaultTCPReadTimeout,
				WriteTimeout: DefaultTCPWriteTimeout,
				IdleTimeout:  DefaultTCPIdleTimeout,
				RateLimit:    DefaultTCPRateLimit,
				MaxLineBytes: DefaultMaxLineBytes,
				Greeting:     true,
			},
			HTTP: HTTPConfig{
				Enabled:   true,
				Addr:      DefaultHTTPAddr,
				WebSocket: true,
			},
			Local: LocalConfig{
				Socket: DefaultLocalSocket,
			},
		},
		Storage: StorageSection{
			Backend:             DefaultBackend,
			SnapshotPath:        DefaultSnapshotPath,
			BadgerDir:           DefaultBadgerDir,
			SweepInterval:       DefaultSweepInterval,
			ShardCount:          DefaultShardCount,
			EncryptionAlgorithm: DefaultEncryptionAlgorithm,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// DefaultMap returns the defaults keyed by dotted koanf path.
//
// Every configurable key appears here, including empty ones, so that
// environment variables like MINIKV_STORAGE_ENCRYPTION_KEY resolve to
// the right nested key.
func DefaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"server.tcp.enabled":        d.Server.TCP.Enabled,
		"server.tcp.addr":           d.Server.TCP.Addr,
		"server.tcp.read_timeout":   d.Server.TCP.ReadTimeout,
		"server.tcp.write_timeout":  d.Server.TCP.WriteTimeout,
		"server.tcp.idle_timeout":   d.Server.TCP.IdleTimeout,
		"server.tcp.rate_limit":     d.Server.TCP.RateLimit,
		"server.tcp.max_line_bytes": d.Server.TCP.MaxLineBytes,
		"server.tcp.greeting":       d.Server.TCP.Greeting,

		"server.http.enabled":       d.Server.HTTP.Enabled,
		"server.http.addr":          d.Server.HTTP.Addr,
		"server.http.websocket":     d.Server.HTTP.WebSocket,
		"server.http.tls_cert_file": d.Server.HTTP.TLSCertFile,
		"server.http.tls_key_file":  d.Server.HTTP.TLSKeyFile,

		"server.local.enabled": d.Server.Local.Enabled,
		"server.local.socket":  d.Server.Local.Socket,

		"storage.backend":              d.Storage.Backend,
		"storage.snapshot_path":        d.Storage.SnapshotPath,
		"storage.badger_dir":           d.Storage.BadgerDir,
		"storage.sweep_interval":       d.Storage.SweepInterval,
		"storage.shard_count":          d.Storage.ShardCount,
		"storage.encryption_key":       d.Storage.EncryptionKey,
		"storage.encryption_algorithm": d.Storage.EncryptionAlgorithm,
		"storage.save_on_shutdown":     d.Storage.SaveOnShutdown,

		"log.level":  d.Log.Level,
		"log.format": d.Log.Format,
	}
}
