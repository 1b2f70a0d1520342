// Package dashboard loads declarative widget pages and renders them.
//
// A dashboard file (YAML or TOML) names a page and lists its widgets. Render
// lays out an element per widget, fetches every widget's data concurrently
// through a fetch.Fetcher, and embeds the init script for the widgets that
// succeeded.
package dashboard
