// Package analysis turns a product/order table into per-field statistics and
// range-rule anomalies.
//
// The pipeline is parse → statistics + anomalies → assemble. It holds no state and
// starts no goroutines, so concurrent calls never interfere.
package analysis

import "bytes"

// Analyze parses comma-separated text with a header line and returns its Result.
// Only structurally malformed text (see ParseError) or an ambiguous header in strict
// mode is an error; bad values are reported inside the Result.
func Analyze(raw []byte, opt Options) (*Result, error) {
	records, err := ReadDelimited(bytes.NewReader(raw), ',')
	if err != nil {
		return nil, err
	}
	return AnalyzeRecords(records, opt)
}

// AnalyzeRecords analyzes already split records whose first entry is the header.
func AnalyzeRecords(records [][]string, opt Options) (*Result, error) {
	rows, err := NormalizeRecords(records, opt)
	if err != nil {
		return nil, err
	}
	return Assemble(ComputeStatistics(rows), DetectAnomalies(rows, opt)), nil
}
