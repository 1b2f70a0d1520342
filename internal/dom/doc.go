// Package dom is the explicit HTML document handle that widgets attach to.
//
// A Document wraps a goquery tree. Widgets locate their target by id (charts)
// or CSS selector (tables), append header cells to "<table>>thead>tr", and
// record their configuration as data-* attributes on the target. Every
// mutation is logged as a Change so callers can inspect what a widget did.
package dom
