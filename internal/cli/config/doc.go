// Package config provides the minikv-cli configuration file
// (~/.minikv/cli.yaml).
//
//   - spec.go: CLIConfig struct
//   - loader.go: loading, saving and flag/env merging
package config
