// Package source serves widget data out of sqlite.
//
// Requests arrive as URL parameters (see ParseQuery) and are answered in one
// of several envelopes: plain records, DataTables rows, Chart.js series, a
// count, or the table schema. Identifiers are always checked against the
// table schema before they reach SQL.
package source
