// Package main is the entry point for the widgetkit server.
//
// The server renders dashboards of charts and tables from definitions in a
// directory, serves the data endpoints those widgets read from, and relays
// action requests as notifications.
//
//	Browser → /dashboards/:name → Renderer → /api/data/:table → SQLite
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	./server -port 8000 -dashboards ./dashboards -data widgetkit.db
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
