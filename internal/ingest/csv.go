package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const utf8BOM = "\ufeff"

// CSVSource reads delimited text with a header row.
type CSVSource struct {
	name  string
	cr    *csv.Reader
	index map[string]int
}

// NewCSVSource reads the header from r and checks that every required column
// is present. name labels the source in errors.
func NewCSVSource(name string, r io.Reader, delimiter rune, required ...string) (*CSVSource, error) {
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading %s CSV header: %w", name, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		col = strings.TrimSpace(col)
		if _, dup := index[col]; !dup {
			index[col] = i
		}
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%s CSV: missing column %q (header: %s)", name, col, strings.Join(header, string(delimiter)))
		}
	}

	return &CSVSource{name: name, cr: cr, index: index}, nil
}

func (s *CSVSource) Next() (Row, error) {
	record, err := s.cr.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, &ParseError{Source: s.name, Line: perr.Line, Err: perr.Err}
		}
		return nil, fmt.Errorf("reading %s CSV: %w", s.name, err)
	}
	line, _ := s.cr.FieldPos(0)
	return &csvRow{source: s.name, record: record, index: s.index, line: line}, nil
}

type csvRow struct {
	source string
	record []string
	index  map[string]int
	line   int
}

func (r *csvRow) Line() int { return r.line }

func (r *csvRow) Field(name string) (string, error) {
	i, ok := r.index[name]
	if !ok {
		return "", fmt.Errorf("%s: unknown column %q", r.source, name)
	}
	if i >= len(r.record) {
		return "", &ParseError{Source: r.source, Line: r.line, Field: name, Err: errors.New("field missing from record")}
	}
	return r.record[i], nil
}

func (r *csvRow) Float(name string) (float64, error) {
	raw, err := r.Field(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, &ParseError{Source: r.source, Line: r.line, Field: name, Value: raw, Err: err}
	}
	return v, nil
}
