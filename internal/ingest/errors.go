package ingest

import "fmt"

// ParseError reports a field that could not be converted. It ends the
// normalizer's pass; days completed before it remain valid.
type ParseError struct {
	Source string
	Line   int
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s line %d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("%s line %d: parsing %s %q: %v", e.Source, e.Line, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
