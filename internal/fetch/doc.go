/*
Package fetch loads widget data from JSON endpoints and hands it to the
chart and table builders.

Charts always issue one GET and expect {"label": [...], "data": [...]}.
Tables run in one of two modes:

  - static columns: the URL becomes the table's ajax source; no request is
    made here and headers come from the caller
  - dynamic columns: one GET returns {"columns": [...], "data": [[...]]}
    (or a bare matrix); a header is appended per column and the rows are
    embedded inline

A failed request is logged with its raw result and returned wrapped in
ErrFetch. There is no retry.
*/
package fetch
