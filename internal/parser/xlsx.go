package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/csvsentry/internal/analysis"
)

// xlsxDecoder reads one worksheet; an empty sheet name means the first one.
type xlsxDecoder struct {
	sheet string
}

func (xlsxDecoder) CanDecode(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

func (d xlsxDecoder) Decode(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, &analysis.ParseError{Err: fmt.Errorf("open xlsx: %w", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	sheet := sheets[0]
	if d.sheet != "" {
		sheet = ""
		for _, s := range sheets {
			if strings.EqualFold(s, d.sheet) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, fmt.Errorf("sheet '%s' not found. Available sheets: %s", d.sheet, strings.Join(sheets, ", "))
		}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &analysis.ParseError{Err: fmt.Errorf("read sheet %s: %w", sheet, err)}
	}

	var out [][]string
	width := 0
	for _, row := range rows {
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
		// Same rule as the delimited reader: a row is blank only when it has no cells.
		if len(row) == 0 || (len(row) == 1 && row[0] == "") {
			continue
		}
		if width == 0 {
			width = len(row)
		}
		// GetRows drops trailing empty cells.
		for len(row) < width {
			row = append(row, "")
		}
		out = append(out, row)
	}
	return out, nil
}
