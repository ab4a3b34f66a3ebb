package report

import (
	"math"
	"time"
)

// Statistics summarises a set of latencies. Min and Max are in nanoseconds.
type Statistics struct {
	Min               int64   `json:"min" yaml:"min"`
	Max               int64   `json:"max" yaml:"max"`
	Average           float64 `json:"avg" yaml:"avg"`
	Variance          float64 `json:"variance" yaml:"variance"`
	StandardDeviation float64 `json:"stdDev" yaml:"stdDev"`
}

// NewStatistics computes summary statistics over the given durations.
// Returns nil for an empty input.
func NewStatistics(durations []time.Duration) *Statistics {
	if len(durations) == 0 {
		return nil
	}
	data := make([]int64, len(durations))
	for i, duration := range durations {
		data[i] = duration.Nanoseconds()
	}
	return &Statistics{
		Min:               minInt64(data),
		Max:               maxInt64(data),
		Average:           avgInt64(data),
		Variance:          varianceInt64(data),
		StandardDeviation: standardDeviationInt64(data),
	}
}

func minInt64(data []int64) int64 {
	rv := data[0]
	for _, value := range data {
		if value < rv {
			rv = value
		}
	}
	return rv
}

func maxInt64(data []int64) int64 {
	rv := data[0]
	for _, value := range data {
		if value > rv {
			rv = value
		}
	}
	return rv
}

func sumInt64(data []int64) int64 {
	var rv int64
	for _, value := range data {
		rv += value
	}
	return rv
}

func avgInt64(data []int64) float64 {
	return float64(sumInt64(data)) / float64(len(data))
}

// varianceInt64 computes the sample variance, i.e., with an n-1 denominator.
func varianceInt64(data []int64) float64 {
	if len(data) < 2 {
		return 0
	}
	avg := avgInt64(data)
	var rv float64
	for _, value := range data {
		d := float64(value) - avg
		rv += d * d
	}
	return rv / float64(len(data)-1)
}

func standardDeviationInt64(data []int64) float64 {
	return math.Sqrt(varianceInt64(data))
}
