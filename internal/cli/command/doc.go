// Package command defines the minikv-cli commands on urfave/cli/v2.
//
//   - root.go: App, global flags and settings resolution
//   - exec.go: one-shot command over the text protocol
//   - repl.go: interactive mode (also the default with no arguments)
//   - http.go: health and keys over the HTTP API
//   - config.go: show or initialize the CLI config file
package command
