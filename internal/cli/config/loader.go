package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".minikv", "cli.yaml")
}

// Load loads CLI configuration from file. A missing file yields the
// defaults; fields absent from the file keep their default values.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path with mode 0600, creating the
// parent directory.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Overrides carries values from flags or environment; empty fields
// leave the config untouched.
type Overrides struct {
	Server  string
	HTTP    string
	Output  string
	Timeout string
}

// Merge applies overrides onto cfg and returns it.
func Merge(cfg *CLIConfig, o Overrides) (*CLIConfig, error) {
	if o.Server != "" {
		cfg.Server = o.Server
	}
	if o.HTTP != "" {
		cfg.HTTP = o.HTTP
	}
	if o.Output != "" {
		cfg.Output = o.Output
	}
	if o.Timeout != "" {
		d, err := time.ParseDuration(o.Timeout)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid timeout %q", o.Timeout)
		}
		cfg.Timeout = d
	}
	return cfg, nil
}
