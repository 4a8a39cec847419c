package processor

import (
	"math"
	"sort"
	"time"

	"github.com/ergosense/datafuse/internal/errors"
)

func (s *service) CorrelateSources(source1, source2 string, window time.Duration) (CorrelationResult, error) {
	return s.correlateRange(source1, source2, window, time.Time{}, time.Time{})
}

// correlateRange pairs values from both sources inside [since, until]
// and computes the Pearson coefficient over the paired sequences.
//
// Pairing is computed from the side of the lexicographically smaller
// source name, so swapping source1 and source2 yields the identical
// score with the labels exchanged.
func (s *service) correlateRange(source1, source2 string, window time.Duration, since, until time.Time) (CorrelationResult, error) {
	errFactory := errors.New()

	if window <= 0 {
		return CorrelationResult{}, errFactory.WithData(ErrInvalidWindow, window.String())
	}

	series1, err := s.defaultSeries(source1, since, until)
	if err != nil {
		return CorrelationResult{}, err
	}
	series2, err := s.defaultSeries(source2, since, until)
	if err != nil {
		return CorrelationResult{}, err
	}

	left, right := series1, series2
	if source2 < source1 {
		left, right = series2, series1
	}
	xs, ys := nearestPairs(left.Points, right.Points, window)

	result := CorrelationResult{
		Source1:      source1,
		Source2:      source2,
		WindowMillis: window.Milliseconds(),
		Metadata: map[string]any{
			"pair_count": len(xs),
			"points_count": map[string]int{
				source1: len(series1.Points),
				source2: len(series2.Points),
			},
		},
	}

	// Fewer than 2 pairs cannot carry a correlation. Report explicit
	// non-correlation instead of failing: absent overlap is expected
	// when one collector is not running.
	if len(xs) < 2 {
		result.Metadata["insufficient_data"] = true
		return result, nil
	}

	score, ok := pearson(xs, ys)
	if !ok {
		result.Metadata["constant_series"] = true
		return result, nil
	}

	result.CorrelationScore = score

	return result, nil
}

// defaultSeries extracts the series for a source's default-type mapping.
// A source with no mapping yields an empty series rather than an error,
// so reports degrade gracefully.
func (s *service) defaultSeries(source string, since, until time.Time) (TimeSeries, error) {
	fs, ok := s.cfg.defaultFor(source)
	if !ok {
		return TimeSeries{Source: source}, nil
	}
	return s.ProcessTimeSeries(fs.Source, fs.Type, since, until)
}

// nearestPairs builds paired value sequences: for each left point, the
// nearest right point within ±window. When two right points are equally
// near, the earlier timestamp wins. Right points are assumed sorted by
// timestamp, which the engine guarantees.
func nearestPairs(left, right []TimePoint, window time.Duration) (xs, ys []float64) {
	for _, lp := range left {
		idx := sort.Search(len(right), func(i int) bool {
			return !right[i].Timestamp.Before(lp.Timestamp)
		})

		best := -1
		var bestDiff time.Duration
		for _, cand := range []int{idx - 1, idx} {
			if cand < 0 || cand >= len(right) {
				continue
			}
			diff := absDuration(right[cand].Timestamp.Sub(lp.Timestamp))
			if diff > window {
				continue
			}
			// Strict less keeps the earlier candidate on equal distance.
			if best == -1 || diff < bestDiff {
				best = cand
				bestDiff = diff
			}
		}

		if best >= 0 {
			xs = append(xs, lp.Value)
			ys = append(ys, right[best].Value)
		}
	}

	return xs, ys
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// pearson computes the linear correlation coefficient of two equal-length
// sequences. Returns false when either sequence has zero variance.
func pearson(xs, ys []float64) (float64, bool) {
	n := float64(len(xs))

	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return 0, false
	}

	return cov / math.Sqrt(varX*varY), true
}
