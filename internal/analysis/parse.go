package analysis

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// ErrAmbiguousColumn is returned in strict mode when several headers match one field.
var ErrAmbiguousColumn = errors.New("ambiguous column")

// ParseError reports delimited text that could not be split into records.
// Missing or non-numeric values never produce a ParseError.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error on line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ReadDelimited splits text into trimmed records. The first non-blank line is the header;
// blank lines are skipped and every other record must have the header's width.
func ReadDelimited(r io.Reader, comma rune) ([][]string, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = br.Discard(3)
	}
	cr := csv.NewReader(br)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &ParseError{Line: pe.Line, Err: pe.Err}
			}
			return nil, &ParseError{Err: err}
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		// Only empty or whitespace-only lines are skipped; ",,,," is a record of empty cells.
		if len(rec) == 1 && rec[0] == "" {
			continue
		}
		if len(out) > 0 && len(rec) != len(out[0]) {
			line, _ := cr.FieldPos(0)
			return nil, &ParseError{
				Line: line,
				Err:  fmt.Errorf("record has %d fields, header has %d", len(rec), len(out[0])),
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// binding holds header indices; -1 means the column is absent.
type binding struct {
	id, name, price, quantity, rating int
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s))
}

func bindColumns(header []string, opt Options) (binding, error) {
	cols := opt.columns()
	b := binding{id: -1, name: -1, price: -1, quantity: -1, rating: -1}
	match := strings.ToLower(cols.QuantityMatch)
	for i, h := range header {
		h = strings.TrimSpace(h)
		switch {
		case h == cols.ID && b.id < 0:
			b.id = i
		case h == cols.Name && b.name < 0:
			b.name = i
		case h == cols.Price && b.price < 0:
			b.price = i
		case h == cols.Rating && b.rating < 0:
			b.rating = i
		}
		if strings.Contains(normalizeHeader(h), match) {
			if b.quantity < 0 {
				b.quantity = i
			} else if opt.StrictHeaders {
				return b, fmt.Errorf("%w: quantity matches %q and %q", ErrAmbiguousColumn, header[b.quantity], h)
			}
		}
	}
	return b, nil
}

func cell(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return rec[idx]
}

// NormalizeRecords binds the header (records[0]) and converts every following record to a Row.
func NormalizeRecords(records [][]string, opt Options) ([]Row, error) {
	if len(records) == 0 {
		return nil, nil
	}
	b, err := bindColumns(records[0], opt)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := Row{
			ID:     parseID(cell(rec, b.id)),
			Name:   cell(rec, b.name),
			Price:  parseNumber(cell(rec, b.price)),
			Rating: parseNumber(cell(rec, b.rating)),
		}
		if b.quantity < 0 {
			row.Quantity = Valid(0)
		} else {
			row.Quantity = parseNumber(cell(rec, b.quantity))
			if !row.Quantity.OK && opt.FlagUnparseable {
				row.Quantity = Valid(0)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseCSV reads comma-separated text into normalized rows.
func ParseCSV(r io.Reader, opt Options) ([]Row, error) {
	records, err := ReadDelimited(r, ',')
	if err != nil {
		return nil, err
	}
	return NormalizeRecords(records, opt)
}
