package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yndnr/minikv-go/pkg/crypto/adaptive"
)

// minEncryptionKeyLength matches the snapshot package's requirement.
const minEncryptionKeyLength = 16

// Verify validates the configuration and returns every problem found.
func Verify(cfg *ServerConfig) error {
	var errs []error
	errs = append(errs, verifyServer(&cfg.Server)...)
	errs = append(errs, verifyStorage(&cfg.Storage)...)
	errs = append(errs, verifyLog(&cfg.Log)...)
	return errors.Join(errs...)
}

func verifyServer(cfg *ServerSection) []error {
	var errs []error

	if cfg.TCP.Enabled {
		if cfg.TCP.Addr == "" {
			errs = append(errs, errors.New("server.tcp.addr is required when the TCP server is enabled"))
		}
		if cfg.TCP.ReadTimeout <= 0 || cfg.TCP.WriteTimeout <= 0 || cfg.TCP.IdleTimeout <= 0 {
			errs = append(errs, errors.New("server.tcp timeouts must be positive"))
		}
		if cfg.TCP.RateLimit < 0 {
			errs = append(errs, errors.New("server.tcp.rate_limit must not be negative"))
		}
		if cfg.TCP.MaxLineBytes <= 0 {
			errs = append(errs, errors.New("server.tcp.max_line_bytes must be positive"))
		}
	}

	if cfg.HTTP.Enabled && cfg.HTTP.Addr == "" {
		errs = append(errs, errors.New("server.http.addr is required when the HTTP server is enabled"))
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.http.tls_cert_file and tls_key_file must be set together"))
	}

	if cfg.Local.Enabled && cfg.Local.Socket == "" {
		errs = append(errs, errors.New("server.local.socket is required when the local socket is enabled"))
	}

	if cfg.TCP.Enabled && cfg.HTTP.Enabled && cfg.TCP.Addr == cfg.HTTP.Addr {
		errs = append(errs, fmt.Errorf("server.tcp.addr and server.http.addr conflict: %s", cfg.TCP.Addr))
	}

	return errs
}

func verifyStorage(cfg *StorageSection) []error {
	var errs []error

	switch cfg.Backend {
	case BackendFile:
		if cfg.SnapshotPath == "" {
			errs = append(errs, errors.New("storage.snapshot_path is required for the file backend"))
		}
	case BackendBadger:
		if cfg.BadgerDir == "" {
			errs = append(errs, errors.New("storage.badger_dir is required for the badger backend"))
		}
	case BackendNone:
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q is not one of file, badger, none", cfg.Backend))
	}

	if cfg.SweepInterval <= 0 {
		errs = append(errs, errors.New("storage.sweep_interval must be positive"))
	}
	if cfg.ShardCount <= 0 || cfg.ShardCount&(cfg.ShardCount-1) != 0 {
		errs = append(errs, fmt.Errorf("storage.shard_count must be a power of two, got %d", cfg.ShardCount))
	}

	if cfg.EncryptionKey != "" && len(cfg.EncryptionKey) < minEncryptionKeyLength {
		errs = append(errs, fmt.Errorf("storage.encryption_key must be at least %d bytes", minEncryptionKeyLength))
	}
	if _, err := adaptive.ParseType(cfg.EncryptionAlgorithm); err != nil {
		errs = append(errs, fmt.Errorf("storage.encryption_algorithm: %w", err))
	}

	return errs
}

func verifyLog(cfg *LogSection) []error {
	var errs []error

	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level))
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of json, text", cfg.Format))
	}

	return errs
}
