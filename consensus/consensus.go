// Package consensus partitions observations into inliers and outliers
// under a cost threshold and ranks candidate models by consensus
// quality.
package consensus

// Mode selects how candidate models are ranked.
type Mode int

const (
	// Count ranks by inlier count; ties are broken by the lower
	// truncated cost sum so that equally sized but tighter consensus
	// sets win.
	Count Mode = iota
	// MSAC ranks by the truncated cost sum alone (lower is better).
	MSAC
)

// Score holds both quality measures of one consensus evaluation.
type Score struct {
	// Inliers is the number of costs at or below the threshold.
	Inliers int
	// MSAC is the sum of min(cost, threshold) over all observations.
	MSAC float64
}

// Better reports whether s ranks strictly better than o under mode.
// Equal scores are never better, keeping the first discovered model
// stable.
func (s Score) Better(o Score, mode Mode) bool {
	if mode == MSAC {
		return s.MSAC < o.MSAC
	}
	if s.Inliers != o.Inliers {
		return s.Inliers > o.Inliers
	}
	return s.MSAC < o.MSAC
}

// Evaluate partitions costs by threshold and computes both scores.
// An observation is an inlier iff costs[i] <= threshold. Non-finite
// costs (including NaN) never satisfy the comparison and are counted
// as outliers, contributing the full threshold to the MSAC sum.
// Evaluate keeps no state; identical input yields identical output.
func Evaluate(costs []float64, threshold float64) ([]int, Score) {
	mask := make([]int, 0, len(costs))
	var s Score
	for i, c := range costs {
		if c <= threshold {
			mask = append(mask, i)
			s.Inliers++
			s.MSAC += c
		} else {
			s.MSAC += threshold
		}
	}
	return mask, s
}
