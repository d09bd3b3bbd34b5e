package decimate

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/canlab/blfview/errs"
)

func TestDecimatePassthrough(t *testing.T) {
	points := []Point{
		{Timestamp: 30, Value: 3},
		{Timestamp: 10, Value: 1},
		{Timestamp: 20, Value: 2},
	}

	out, err := Decimate(points, 100)
	require.NoError(t, err)
	require.Equal(t, []Point{
		{Timestamp: 10, Value: 1},
		{Timestamp: 20, Value: 2},
		{Timestamp: 30, Value: 3},
	}, out, "small series pass through sorted, unreduced")

	// input must not be mutated
	require.Equal(t, uint64(30), points[0].Timestamp)
}

func TestDecimateInvalidMaxPoints(t *testing.T) {
	_, err := Decimate([]Point{{Timestamp: 1, Value: 1}}, 1)
	require.ErrorIs(t, err, errs.ErrInvalidMaxPoints)

	_, err = Decimate(nil, 0)
	require.ErrorIs(t, err, errs.ErrInvalidMaxPoints)

	_, err = NewAccumulator(0, 100, 1)
	require.ErrorIs(t, err, errs.ErrInvalidMaxPoints)
}

func TestDecimateBudget(t *testing.T) {
	points := make([]Point, 10_000)
	for i := range points {
		points[i] = Point{Timestamp: uint64(i), Value: rand.Float64()}
	}

	for _, maxPoints := range []int{2, 3, 10, 100, 999, 5000} {
		out, err := Decimate(points, maxPoints)
		require.NoError(t, err)
		require.LessOrEqual(t, len(out), maxPoints)
		require.NotEmpty(t, out)

		for i := 1; i < len(out); i++ {
			require.LessOrEqual(t, out[i-1].Timestamp, out[i].Timestamp, "output stays time-ordered")
		}
	}
}

func TestDecimatePreservesSpikes(t *testing.T) {
	// flat series with one spike up and one down
	points := make([]Point, 10_000)
	for i := range points {
		points[i] = Point{Timestamp: uint64(i), Value: 50}
	}
	points[3333].Value = 1000
	points[7777].Value = -1000

	out, err := Decimate(points, 100)
	require.NoError(t, err)

	var sawHigh, sawLow bool
	for _, p := range out {
		if p.Value == 1000 {
			sawHigh = true
		}
		if p.Value == -1000 {
			sawLow = true
		}
	}
	require.True(t, sawHigh, "maximum spike must survive decimation")
	require.True(t, sawLow, "minimum spike must survive decimation")
}

func TestDecimateConstantSeries(t *testing.T) {
	points := make([]Point, 1000)
	for i := range points {
		points[i] = Point{Timestamp: uint64(i), Value: 7}
	}

	out, err := Decimate(points, 10)
	require.NoError(t, err)
	require.LessOrEqual(t, len(out), 10)
	for _, p := range out {
		require.Equal(t, 7.0, p.Value)
	}
}

func TestDecimateSingleTimestamp(t *testing.T) {
	points := []Point{
		{Timestamp: 42, Value: 1},
		{Timestamp: 42, Value: 9},
		{Timestamp: 42, Value: 5},
	}

	out, err := Decimate(points, 2)
	require.NoError(t, err)
	require.Equal(t, []Point{
		{Timestamp: 42, Value: 1},
		{Timestamp: 42, Value: 9},
	}, out, "zero time span collapses to one bucket's min and max")
}

func TestAccumulatorChunkedMatchesBatch(t *testing.T) {
	points := make([]Point, 5000)
	for i := range points {
		points[i] = Point{Timestamp: uint64(i * 10), Value: rand.NormFloat64()}
	}

	batch, err := Decimate(points, 200)
	require.NoError(t, err)

	acc, err := NewAccumulator(points[0].Timestamp, points[len(points)-1].Timestamp, 200)
	require.NoError(t, err)
	for i := 0; i < len(points); i += 137 {
		end := i + 137
		if end > len(points) {
			end = len(points)
		}
		for _, p := range points[i:end] {
			acc.Add(p)
		}
	}

	require.Equal(t, batch, acc.Points(), "chunked feeding must match one-shot decimation")
}

func TestAccumulatorClampsOutOfRange(t *testing.T) {
	acc, err := NewAccumulator(100, 200, 4)
	require.NoError(t, err)

	acc.Add(Point{Timestamp: 50, Value: 1})
	acc.Add(Point{Timestamp: 250, Value: 2})

	out := acc.Points()
	require.Len(t, out, 2)
}
