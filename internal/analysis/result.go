package analysis

import (
	"encoding/json"
	"fmt"
	"time"
)

// Result is the complete output of one analysis run. It is not modified after Assemble.
type Result struct {
	Statistics Statistics `json:"statistics"`
	Anomalies  Anomalies  `json:"anomalies"`
}

// Assemble combines statistics and anomalies into a Result.
func Assemble(stats Statistics, anomalies Anomalies) *Result {
	if anomalies.Price == nil {
		anomalies.Price = []Anomaly{}
	}
	if anomalies.Quantity == nil {
		anomalies.Quantity = []Anomaly{}
	}
	if anomalies.Rating == nil {
		anomalies.Rating = []Anomaly{}
	}
	return &Result{Statistics: stats, Anomalies: anomalies}
}

// FileMeta identifies the analyzed input in summaries.
type FileMeta struct {
	Name string
	At   time.Time
}

// AnomalyCounts is the per-field anomaly tally of a Summary.
type AnomalyCounts struct {
	Price    int `json:"price"`
	Quantity int `json:"quantity"`
	Rating   int `json:"rating"`
	Total    int `json:"total"`
}

// Averages carries the mean of each field.
type Averages struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
	Rating   float64 `json:"rating"`
}

// Summary is the condensed view of a Result sent as a notification.
type Summary struct {
	FileName      string        `json:"fileName"`
	Timestamp     string        `json:"timestamp"`
	TotalRecords  int           `json:"totalRecords"`
	AnomalyCounts AnomalyCounts `json:"anomalyCounts"`
	Averages      Averages      `json:"averages"`
}

// TimestampLayout matches JavaScript's Date.toISOString output.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Summarize derives a Summary from res. A nil result yields zero counts and averages.
func Summarize(res *Result, meta FileMeta) Summary {
	s := Summary{FileName: meta.Name, Timestamp: FormatTimestamp(meta.At)}
	if res == nil {
		return s
	}
	s.TotalRecords = res.Statistics.TotalRecords
	s.AnomalyCounts = AnomalyCounts{
		Price:    len(res.Anomalies.Price),
		Quantity: len(res.Anomalies.Quantity),
		Rating:   len(res.Anomalies.Rating),
		Total:    res.Anomalies.Total(),
	}
	s.Averages = Averages{
		Price:    res.Statistics.Metric(FieldPrice).Mean,
		Quantity: res.Statistics.Metric(FieldQuantity).Mean,
		Rating:   res.Statistics.Metric(FieldRating).Mean,
	}
	return s
}

// SummarizeJSON summarizes a stored result whose shape is not trusted. Missing or
// mistyped members count as zero; only input that is not JSON at all is an error.
func SummarizeJSON(raw []byte, meta FileMeta) (Summary, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Summary{}, fmt.Errorf("decode result: %w", err)
	}
	s := Summary{FileName: meta.Name, Timestamp: FormatTimestamp(meta.At)}
	s.TotalRecords = int(number(lookup(doc, "statistics", "totalRecords")))
	s.AnomalyCounts.Price = length(lookup(doc, "anomalies", string(FieldPrice)))
	s.AnomalyCounts.Quantity = length(lookup(doc, "anomalies", string(FieldQuantity)))
	s.AnomalyCounts.Rating = length(lookup(doc, "anomalies", string(FieldRating)))
	s.AnomalyCounts.Total = s.AnomalyCounts.Price + s.AnomalyCounts.Quantity + s.AnomalyCounts.Rating
	s.Averages.Price = number(lookup(doc, "statistics", string(FieldPrice), "mean"))
	s.Averages.Quantity = number(lookup(doc, "statistics", string(FieldQuantity), "mean"))
	s.Averages.Rating = number(lookup(doc, "statistics", string(FieldRating), "mean"))
	return s, nil
}

func lookup(v any, path ...string) any {
	for _, key := range path {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[key]
	}
	return v
}

func number(v any) float64 {
	f, _ := v.(float64)
	return f
}

func length(v any) int {
	l, _ := v.([]any)
	return len(l)
}
