// Package config provides the minikv server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values, as a struct and as a dotted-key map
//   - verify.go: validation run before the server starts
//   - sanitize.go: masking of secrets for logging
//
// Values are loaded through internal/infra/confloader from defaults, a
// YAML file, MINIKV_ environment variables and command-line flags.
package config
