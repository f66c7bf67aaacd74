package config

import "time"

// CLIConfig is the configuration for minikv-cli.
type CLIConfig struct {
	// Server is the text protocol address (host:port).
	Server string `yaml:"server"`
	// HTTP is the HTTP API address, used by health and keys.
	HTTP string `yaml:"http"`
	// Output is the default output format: plain, json or yaml.
	Output  string        `yaml:"output"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:  "127.0.0.1:6380",
		HTTP:    "127.0.0.1:8080",
		Output:  "plain",
		Timeout: 10 * time.Second,
	}
}
