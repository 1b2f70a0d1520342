package table

// SourceKind tells how a table gets its rows.
type SourceKind int

const (
	// SourceNone leaves the data source unset.
	SourceNone SourceKind = iota
	// SourceAjax lets the table library request rows from a URL.
	SourceAjax
	// SourceInline embeds rows that were already fetched.
	SourceInline
)

func (k SourceKind) String() string {
	switch k {
	case SourceAjax:
		return "ajax"
	case SourceInline:
		return "inline"
	default:
		return "none"
	}
}

// Source is the table's data source. Ajax and inline rows are mutually
// exclusive; an inline source with no rows still counts as inline data.
type Source struct {
	kind SourceKind
	url  string
	rows [][]any
}

// Ajax points the table at a URL the library will request itself.
func Ajax(url string) Source {
	if url == "" {
		return Source{}
	}
	return Source{kind: SourceAjax, url: url}
}

// Inline embeds a two-dimensional value matrix.
func Inline(rows [][]any) Source {
	if rows == nil {
		rows = [][]any{}
	}
	return Source{kind: SourceInline, rows: rows}
}

func (s Source) Kind() SourceKind { return s.kind }
func (s Source) URL() string      { return s.url }
func (s Source) Rows() [][]any    { return s.rows }
