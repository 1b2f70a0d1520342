/*
Package table builds DataTables configurations.

Every configuration starts with a 5% wide first column. The data source is
either an ajax descriptor or an inline row matrix, never both:

	table.Build(table.Options{Source: table.Ajax("/api/data/users?as_datatables=true")})
	table.Build(table.Options{Source: table.Inline(rows), Edit: true, PageURL: page})

With Edit set, a trailing "edit" header and a non-searchable, non-orderable
column are added; each cell links to "<PageURL>/edit/<first field of row>".
Draw performs the header mutations on a dom.Document; Build is pure.
*/
package table
