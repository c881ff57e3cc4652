// pkg/egauge/resample.go
package egauge

import (
	"fmt"
	"sort"
	"time"
)

// Resample downsamples readings to a coarser interval by averaging each
// circuit within bucket-aligned windows. Buckets are aligned to the interval
// in the reading's own timezone and labeled with the bucket start, matching
// the native coarser tables. Circuits missing from every reading in a bucket
// stay absent rather than reading as zero.
func Resample(readings []Reading, interval time.Duration) ([]Reading, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %v", interval)
	}
	if len(readings) == 0 {
		return nil, nil
	}

	type bucketAgg struct {
		sums   map[string]float64
		counts map[string]int
	}

	buckets := make(map[time.Time]*bucketAgg)
	for _, r := range readings {
		start := r.Time.Truncate(interval)
		agg, ok := buckets[start]
		if !ok {
			agg = &bucketAgg{
				sums:   make(map[string]float64),
				counts: make(map[string]int),
			}
			buckets[start] = agg
		}
		for col, v := range r.Values {
			agg.sums[col] += v
			agg.counts[col]++
		}
	}

	starts := make([]time.Time, 0, len(buckets))
	for start := range buckets {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	dataID := readings[0].DataID
	out := make([]Reading, 0, len(starts))
	for _, start := range starts {
		agg := buckets[start]
		values := make(map[string]float64, len(agg.sums))
		for col, sum := range agg.sums {
			values[col] = sum / float64(agg.counts[col])
		}
		out = append(out, Reading{
			DataID: dataID,
			Time:   start,
			Values: values,
		})
	}
	return out, nil
}
