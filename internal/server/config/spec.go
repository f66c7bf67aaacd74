package config

import "time"

// ServerConfig is the root configuration for minikv-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server" yaml:"server"`
	Storage StorageSection `koanf:"storage" yaml:"storage"`
	Log     LogSection     `koanf:"log" yaml:"log"`
}

// ServerSection configures the network listeners.
type ServerSection struct {
	TCP   TCPConfig   `koanf:"tcp" yaml:"tcp"`
	HTTP  HTTPConfig  `koanf:"http" yaml:"http"`
	Local LocalConfig `koanf:"local" yaml:"local"`
}

// TCPConfig configures the line-oriented text server.
type TCPConfig struct {
	Enabled      bool          `koanf:"enabled" yaml:"enabled"`
	Addr         string        `koanf:"addr" yaml:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" yaml:"idle_timeout"`

	// RateLimit is the sustained commands per second allowed per client
	// IP. Zero disables limiting.
	RateLimit    float64 `koanf:"rate_limit" yaml:"rate_limit"`
	MaxLineBytes int     `koanf:"max_line_bytes" yaml:"max_line_bytes"`
	Greeting     bool    `koanf:"greeting" yaml:"greeting"`
}

// LocalConfig configures the text protocol on a Unix socket. It shares
// the TCP timeouts and line limit but is never rate limited.
type LocalConfig struct {
	Enabled bool   `koanf:"enabled" yaml:"enabled"`
	Socket  string `koanf:"socket" yaml:"socket"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Enabled     bool   `koanf:"enabled" yaml:"enabled"`
	Addr        string `koanf:"addr" yaml:"addr"`
	WebSocket   bool   `koanf:"websocket" yaml:"websocket"`
	TLSCertFile string `koanf:"tls_cert_file" yaml:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file" yaml:"tls_key_file"`
}

// StorageSection configures the in-memory store and its persistence.
type StorageSection struct {
	// Backend is one of "file", "badger" or "none".
	Backend       string        `koanf:"backend" yaml:"backend"`
	SnapshotPath  string        `koanf:"snapshot_path" yaml:"snapshot_path"`
	BadgerDir     string        `koanf:"badger_dir" yaml:"badger_dir"`
	SweepInterval time.Duration `koanf:"sweep_interval" yaml:"sweep_interval"`
	ShardCount    int           `koanf:"shard_count" yaml:"shard_count"`

	// EncryptionKey seals file snapshots when set. At least 16 bytes.
	EncryptionKey       string `koanf:"encryption_key" yaml:"encryption_key"`
	EncryptionAlgorithm string `koanf:"encryption_algorithm" yaml:"encryption_algorithm"`
	SaveOnShutdown      bool   `koanf:"save_on_shutdown" yaml:"save_on_shutdown"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}
