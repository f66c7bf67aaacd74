// Package confloader loads layered configuration with koanf.
//
// Sources, lowest priority first:
//
//  1. Defaults (a flat map of dotted keys)
//  2. YAML file
//  3. Environment variables, MINIKV_ prefixed
//  4. Overrides, typically command-line flags
//
// Environment names map to keys by replacing "." with "_" and
// uppercasing, so MINIKV_SERVER_TCP_READ_TIMEOUT sets
// server.tcp.read_timeout. Keys that contain underscores themselves are
// resolved against the defaults, which is why every configurable key
// should have one.
//
// Watcher reports writes to the config file so callers can re-apply the
// settings that are safe to change at runtime.
package confloader
