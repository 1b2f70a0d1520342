package source

import "errors"

var (
	ErrUnknownTable = errors.New("unknown table")
	ErrUnknownField = errors.New("unknown field")
	ErrBadQuery     = errors.New("bad query")
	ErrEmptyRecord  = errors.New("empty record")
)
