// Package logger builds the process-wide structured logger.
//
// It wraps log/slog and adds:
//   - JSON (default) or text output
//   - a shared level that can be changed at runtime (SetLevel), used by
//     config hot reload
//   - redaction of attributes whose key looks secret
//   - request ID propagation: records logged with a context carrying a
//     request ID get a "request_id" attribute automatically
//
// Components receive a *slog.Logger; this package only decides how that
// logger is configured.
package logger
