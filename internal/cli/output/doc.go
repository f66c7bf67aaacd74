// Package output renders minikv-cli results as plain text, JSON, YAML
// or an aligned table.
package output
