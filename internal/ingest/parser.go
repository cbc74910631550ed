package ingest

// Row is one input record with fields addressed by header name.
type Row interface {
	// Line is the 1-based line number of the record in its source.
	Line() int
	Field(name string) (string, error)
	Float(name string) (float64, error)
}

// RowSource yields rows in input order and returns io.EOF after the last one.
type RowSource interface {
	Next() (Row, error)
}
