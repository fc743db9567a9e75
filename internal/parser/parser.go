package parser

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/csvsentry/internal/analysis"
)

// Decoder turns an uploaded file into header-first records.
type Decoder interface {
	CanDecode(filename string) bool
	Decode(content []byte) ([][]string, error)
}

var registry []Decoder

// Register adds a decoder implementation to the registry.
func Register(d Decoder) {
	registry = append(registry, d)
}

// For selects a decoder based on filename. Unknown extensions are read as CSV.
func For(filename string) Decoder {
	for _, d := range registry {
		if d.CanDecode(filename) {
			return d
		}
	}
	return csvDecoder{comma: ','}
}

// Options tunes decoding. Sheet picks the worksheet of workbook uploads.
type Options struct {
	Sheet string
}

// Decode splits content into records using the decoder registered for filename.
func Decode(filename string, content []byte, o Options) ([][]string, error) {
	d := For(filename)
	if x, ok := d.(xlsxDecoder); ok && o.Sheet != "" {
		x.sheet = o.Sheet
		d = x
	}
	return d.Decode(content)
}

// Analyze decodes content and runs the analysis pipeline on it.
func Analyze(filename string, content []byte, o Options, opt analysis.Options) (*analysis.Result, error) {
	records, err := Decode(filename, content, o)
	if err != nil {
		return nil, err
	}
	return analysis.AnalyzeRecords(records, opt)
}

// AnalyzeFile reads a file from disk and analyzes it.
func AnalyzeFile(path string, o Options, opt analysis.Options) (*analysis.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Analyze(filepath.Base(path), data, o, opt)
}

func init() {
	Register(csvDecoder{ext: ".csv", comma: ','})
	Register(csvDecoder{ext: ".tsv", comma: '\t'})
	Register(xlsxDecoder{})
}
