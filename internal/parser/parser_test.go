package parser_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/csvsentry/internal/analysis"
	"github.com/KaramelBytes/csvsentry/internal/parser"
)

func TestAnalyzeFileCSV(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "products.csv")
	content := "ID,Nom,Prix,Quantité,Note_Client\n" +
		"1,A,5,10,3\n" +
		"2,B,600,0,6\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	res, err := parser.AnalyzeFile(p, parser.Options{}, analysis.DefaultOptions())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Statistics.TotalRecords != 2 || len(res.Anomalies.Price) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestDecodeTSV(t *testing.T) {
	recs, err := parser.Decode("orders.TSV", []byte("ID\tNom\n1\tA, B\n"), parser.Options{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 2 || recs[1][1] != "A, B" {
		t.Fatalf("unexpected records: %q", recs)
	}
}

func TestDecodeUnknownExtensionFallsBackToCSV(t *testing.T) {
	recs, err := parser.Decode("export.dat", []byte("a,b\n1,2\n"), parser.Options{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 2 || len(recs[0]) != 2 {
		t.Fatalf("unexpected records: %q", recs)
	}
}

func workbook(t *testing.T, sheet string, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestAnalyzeXLSX(t *testing.T) {
	data := workbook(t, "Sheet1", [][]interface{}{
		{"ID", "Nom", "Prix", "Quantité", "Note_Client"},
		{1, "A", 5, 10, 3},
		{},
		{2, "B", 50, 1500, ""},
	})
	res, err := parser.Analyze("products.xlsx", data, parser.Options{}, analysis.DefaultOptions())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Statistics.TotalRecords != 2 {
		t.Fatalf("blank rows should be skipped, got %d records", res.Statistics.TotalRecords)
	}
	if res.Statistics.Price.Mean != 27.5 {
		t.Fatalf("price mean = %v, want 27.5", res.Statistics.Price.Mean)
	}
	// The trailing empty rating is padded and reported as unparseable.
	if len(res.Anomalies.Rating) != 1 || res.Anomalies.Rating[0].Reason != analysis.ReasonUnparseable {
		t.Fatalf("rating anomalies = %+v", res.Anomalies.Rating)
	}
}

func TestDecodeXLSXKeepsRowsOfEmptyCells(t *testing.T) {
	data := workbook(t, "Sheet1", [][]interface{}{
		{"ID", "Nom", "Prix"},
		{1, "A", 20},
		{" ", " ", " "},
		{3, "C", 600},
	})
	recs, err := parser.Decode("a.xlsx", data, parser.Options{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 4 || strings.Join(recs[2], "|") != "||" {
		t.Fatalf("unexpected records: %q", recs)
	}
}

func TestDecodeXLSXSheetSelection(t *testing.T) {
	data := workbook(t, "Sheet1", [][]interface{}{{"ID"}, {1}})

	if _, err := parser.Decode("a.xlsx", data, parser.Options{Sheet: "missing"}); err == nil || !strings.Contains(err.Error(), "Available sheets: Sheet1") {
		t.Fatalf("expected missing sheet error, got %v", err)
	}
	recs, err := parser.Decode("a.xlsx", data, parser.Options{Sheet: "sheet1"})
	if err != nil || len(recs) != 2 {
		t.Fatalf("decode: %v %q", err, recs)
	}
}

func TestDecodeXLSXCorrupt(t *testing.T) {
	_, err := parser.Decode("broken.xlsx", []byte("not a zip"), parser.Options{})
	var pe *analysis.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *analysis.ParseError, got %v", err)
	}
}
