// Package decimate reduces signal series to a bounded point count while
// preserving the visual envelope.
//
// The series' time range is split into fixed-width buckets and each bucket
// contributes its minimum and maximum sample, emitted in time order. Spikes
// survive reduction because an extreme value is by definition a bucket min
// or max. With two points per bucket, maxPoints/2 buckets keep the output
// within the requested budget.
package decimate

import (
	"fmt"
	"sort"

	"github.com/canlab/blfview/errs"
)

// Point is one sample of a signal series.
type Point struct {
	Timestamp uint64
	Value     float64
}

type bucket struct {
	count    int
	min, max Point
}

// Accumulator builds a decimated series incrementally. The time range must
// be known up front so bucket boundaries stay fixed across Add calls, which
// is what lets chunked pipelines feed it without buffering the whole series.
//
// Series that never exceed maxPoints are kept exact, matching what Decimate
// does for small inputs; bucketing starts only on overflow.
type Accumulator struct {
	start      uint64
	span       float64
	maxPoints  int
	pending    []Point
	buckets    []bucket
	overflowed bool
}

// NewAccumulator creates an accumulator over [start, end] with at most
// maxPoints output points.
//
// Returns:
//   - *Accumulator: ready to accept samples within the range
//   - error: errs.ErrInvalidMaxPoints when maxPoints < 2
func NewAccumulator(start, end uint64, maxPoints int) (*Accumulator, error) {
	if maxPoints < 2 {
		return nil, fmt.Errorf("%w: %d", errs.ErrInvalidMaxPoints, maxPoints)
	}
	if end < start {
		start, end = end, start
	}

	n := maxPoints / 2
	if n < 1 {
		n = 1
	}

	return &Accumulator{
		start:     start,
		span:      float64(end - start),
		maxPoints: maxPoints,
		buckets:   make([]bucket, n),
	}, nil
}

// Add feeds one sample. Timestamps outside the range clamp to the first or
// last bucket.
func (a *Accumulator) Add(p Point) {
	if !a.overflowed {
		a.pending = append(a.pending, p)
		if len(a.pending) <= a.maxPoints {
			return
		}
		a.overflowed = true
		for _, q := range a.pending {
			a.addToBucket(q)
		}
		a.pending = nil
		return
	}

	a.addToBucket(p)
}

func (a *Accumulator) addToBucket(p Point) {
	b := &a.buckets[a.bucketIndex(p.Timestamp)]
	if b.count == 0 {
		b.min, b.max = p, p
		b.count = 1
		return
	}

	b.count++
	if p.Value < b.min.Value {
		b.min = p
	}
	if p.Value > b.max.Value {
		b.max = p
	}
}

func (a *Accumulator) bucketIndex(ts uint64) int {
	if ts <= a.start || a.span == 0 {
		return 0
	}

	idx := int(float64(ts-a.start) / a.span * float64(len(a.buckets)))
	if idx >= len(a.buckets) {
		idx = len(a.buckets) - 1
	}

	return idx
}

// Points returns the accumulated envelope in time order. Buckets that saw a
// single sample or whose min and max coincide contribute one point. A
// series that fit within maxPoints comes back exact and sorted.
func (a *Accumulator) Points() []Point {
	if !a.overflowed {
		out := make([]Point, len(a.pending))
		copy(out, a.pending)
		sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })

		return out
	}

	out := make([]Point, 0, 2*len(a.buckets))
	for i := range a.buckets {
		b := &a.buckets[i]
		if b.count == 0 {
			continue
		}
		if b.min == b.max {
			out = append(out, b.min)
			continue
		}
		if b.min.Timestamp <= b.max.Timestamp {
			out = append(out, b.min, b.max)
		} else {
			out = append(out, b.max, b.min)
		}
	}

	return out
}

// Decimate reduces a series to at most maxPoints points. Series that
// already fit are returned as a copy, unmodified. Input order does not
// matter; the output is always sorted by timestamp.
//
// Returns:
//   - []Point: the envelope, at most maxPoints long
//   - error: errs.ErrInvalidMaxPoints when maxPoints < 2
func Decimate(points []Point, maxPoints int) ([]Point, error) {
	if maxPoints < 2 {
		return nil, fmt.Errorf("%w: %d", errs.ErrInvalidMaxPoints, maxPoints)
	}

	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	if len(sorted) <= maxPoints {
		return sorted, nil
	}

	acc, err := NewAccumulator(sorted[0].Timestamp, sorted[len(sorted)-1].Timestamp, maxPoints)
	if err != nil {
		return nil, err
	}
	for _, p := range sorted {
		acc.Add(p)
	}

	return acc.Points(), nil
}
