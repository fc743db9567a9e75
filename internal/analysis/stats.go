package analysis

import (
	"math"
	"sort"
)

// MetricStats summarizes one numeric field. All values are rounded to 2 decimals.
type MetricStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stddev"`
}

// Statistics holds the per-field summaries of one dataset.
type Statistics struct {
	Price        MetricStats `json:"price"`
	Quantity     MetricStats `json:"quantity"`
	Rating       MetricStats `json:"rating"`
	TotalRecords int         `json:"totalRecords"`
}

// Metric returns the summary for f, or zero stats for an unknown field.
func (s Statistics) Metric(f Field) MetricStats {
	switch f {
	case FieldPrice:
		return s.Price
	case FieldQuantity:
		return s.Quantity
	case FieldRating:
		return s.Rating
	default:
		return MetricStats{}
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// ComputeStats summarizes the valid numbers in values; invalid entries are ignored.
//
// The median is the element at index n/2 of the sorted values, i.e. the upper middle
// for even n. The standard deviation divides by n and is taken around the rounded mean.
func ComputeStats(values []Value) MetricStats {
	nums := make([]float64, 0, len(values))
	for _, v := range values {
		if x, ok := v.Float(); ok {
			nums = append(nums, x)
		}
	}
	if len(nums) == 0 {
		return MetricStats{}
	}
	n := float64(len(nums))

	var sum float64
	for _, x := range nums {
		sum += x
	}
	mean := round2(sum / n)

	sorted := make([]float64, len(nums))
	copy(sorted, nums)
	sort.Float64s(sorted)
	median := round2(sorted[len(sorted)/2])

	var sq float64
	for _, x := range nums {
		d := x - mean
		sq += d * d
	}
	return MetricStats{
		Mean:   mean,
		Median: median,
		StdDev: round2(math.Sqrt(sq / n)),
	}
}

// ComputeStatistics summarizes price, quantity and rating across rows.
func ComputeStatistics(rows []Row) Statistics {
	column := func(f Field) []Value {
		vals := make([]Value, len(rows))
		for i, r := range rows {
			vals[i] = r.Value(f)
		}
		return vals
	}
	return Statistics{
		Price:        ComputeStats(column(FieldPrice)),
		Quantity:     ComputeStats(column(FieldQuantity)),
		Rating:       ComputeStats(column(FieldRating)),
		TotalRecords: len(rows),
	}
}
