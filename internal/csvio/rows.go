// Package csvio decodes the hand-maintained CSV sheets (site lists, batch
// plans) whose rows vary in width.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// Rows feeds gocsv's positional decoder. It consumes the header row up front
// and cuts every following record to width columns; shorter records are
// passed through and leave the trailing fields empty.
type Rows struct {
	r      *csv.Reader
	width  int
	header []string
}

// NewRows reads the header row of in.
func NewRows(in io.Reader, width int) (*Rows, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("missing header row")
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	return &Rows{r: r, width: width, header: header}, nil
}

// Header returns the header row as read.
func (rs *Rows) Header() []string { return rs.header }

func (rs *Rows) Read() ([]string, error) {
	rec, err := rs.r.Read()
	if len(rec) > rs.width {
		rec = rec[:rs.width]
	}
	return rec, err
}

func (rs *Rows) ReadAll() ([][]string, error) {
	var out [][]string
	for {
		rec, err := rs.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

// Decode reads a headed CSV into out, a pointer to a slice of structs whose
// exported fields map to columns by position. A sheet with only a header
// decodes to an empty slice.
func Decode(in io.Reader, out interface{}, width int) ([]string, error) {
	rows, err := NewRows(in, width)
	if err != nil {
		return nil, err
	}
	if err := gocsv.UnmarshalCSVWithoutHeaders(rows, out); err != nil && !errors.Is(err, gocsv.ErrEmptyCSVFile) {
		return nil, err
	}
	return rows.Header(), nil
}
