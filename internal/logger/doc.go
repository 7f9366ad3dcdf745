// Package logger wraps zap for the entangle binaries:
//   - a global sugared logger writing to stderr, so stdout stays free for reports,
//   - console or JSON encoding selected through Options,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level configuration and parsing utilities,
//   - convenience functions (Infof, WarnKV, etc.).
//
// Services and long-running scans accept a context and extract the logger
// from it, so progress messages carry the command name and scan coordinates.
package logger
