// Package logging provides structured logging using uber/zap.
//
// Two presets are available:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for humans
//
// Components receive a *Logger and scope it with Named, so a fetch failure
// shows up as component "fetch" and a notifier fallback as "notify".
//
// Example Usage:
//
//	logger := logging.FromLevel("info", false).Named("fetch")
//	logger.Error("widget data request failed", zap.String("url", url), zap.Error(err))
package logging
