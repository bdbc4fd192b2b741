package utils

import (
	"encoding/json"
	"io"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// LatencyStatus records operation latencies in microseconds.
type LatencyStatus struct {
	histogram *hdrhistogram.Histogram
}

func NewLatencyStatus(min, max time.Duration) *LatencyStatus {
	return &LatencyStatus{
		histogram: hdrhistogram.New(min.Microseconds(), max.Microseconds(), 3),
	}
}

// Record fails when d is outside the range given to NewLatencyStatus.
func (ls *LatencyStatus) Record(d time.Duration) error {
	return ls.histogram.RecordValue(d.Microseconds())
}

func (ls *LatencyStatus) Count() int64 {
	return ls.histogram.TotalCount()
}

type Result struct {
	Percentage float64
	Latency    float64
}

// Percentiles returns the latency at each percentile (0-100). If w is not
// nil the cumulative distribution is written to it as JSON.
func (ls *LatencyStatus) Percentiles(percentiles []float64, w io.Writer) []time.Duration {
	ret := make([]time.Duration, len(percentiles))
	for i := range percentiles {
		ret[i] = time.Duration(ls.histogram.ValueAtQuantile(percentiles[i])) * time.Microsecond
	}
	if w != nil {
		brackets := ls.histogram.CumulativeDistribution()
		results := make([]Result, len(brackets))
		for i := range brackets {
			results[i] = Result{
				Percentage: brackets[i].Quantile,
				Latency:    float64(brackets[i].ValueAt),
			}
		}
		data, _ := json.Marshal(results)
		w.Write(data)
	}
	return ret
}
