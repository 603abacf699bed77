// Package homography fits a planar projective transform to 2D point
// correspondences using the normalized direct linear transform. It is
// the reference estimator/evaluator pair for image-to-image matches; a
// minimal sample of four matches in general position determines the
// homography.
package homography

import (
	"math"

	gmat "gonum.org/v1/gonum/mat"

	"github.com/robustgeo/robustfit/robust"
	"github.com/robustgeo/robustfit/sample"
)

// MinSamples is the minimal sample size of the homography estimator.
const MinSamples = 4

// Match is one correspondence: (X1,Y1) in the first image maps to
// (X2,Y2) in the second.
type Match struct {
	X1, Y1 float64
	X2, Y2 float64
}

// Model is a 3x3 homography in row-major order, scaled so that the
// last entry is 1 whenever that entry is not vanishing.
type Model [9]float64

// Apply maps a first-image point through the homography. ok is false
// when the point maps to infinity.
func (h Model) Apply(x, y float64) (u, v float64, ok bool) {
	w := h[6]*x + h[7]*y + h[8]
	if math.Abs(w) < 1e-12 {
		return 0, 0, false
	}
	u = (h[0]*x + h[1]*y + h[2]) / w
	v = (h[3]*x + h[4]*y + h[5]) / w
	return u, v, true
}

// Estimator fits homographies by normalized weighted DLT. It is
// stateless and safe for concurrent use.
type Estimator struct{}

var (
	_ robust.Estimator[Match, Model]         = Estimator{}
	_ robust.WeightedEstimator[Match, Model] = Estimator{}
)

func (e Estimator) Fit(sub sample.Subset[Match]) ([]Model, error) {
	return e.FitWeighted(sub, nil)
}

// FitWeighted solves the DLT system with rows scaled by the square
// root of each match weight. Samples whose points are in a degenerate
// configuration (e.g. three collinear points in the minimal case)
// leave the nullspace ambiguous and are rejected. A nil weight slice
// means unit weights.
func (e Estimator) FitWeighted(sub sample.Subset[Match], weights []float64) ([]Model, error) {
	n := sub.Len()
	if n < MinSamples {
		return nil, robust.ErrDegenerateSample
	}

	weightAt := func(i int) float64 { return 1 }
	if weights != nil {
		weightAt = func(i int) float64 {
			w := weights[i]
			if math.IsNaN(w) || w < 0 {
				return 0
			}
			return w
		}
	}

	active := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if weightAt(i) > 1e-12 {
			active = append(active, i)
		}
	}
	if len(active) < MinSamples {
		return nil, robust.ErrDegenerateSample
	}

	// Hartley normalization of both point sets conditions the DLT
	// system: centroid at the origin, mean distance sqrt(2).
	t1, ok1 := normalization(len(active), func(i int) (float64, float64) {
		m := sub.At(active[i])
		return m.X1, m.Y1
	})
	t2, ok2 := normalization(len(active), func(i int) (float64, float64) {
		m := sub.At(active[i])
		return m.X2, m.Y2
	})
	if !ok1 || !ok2 {
		return nil, robust.ErrDegenerateSample
	}

	a := gmat.NewDense(2*len(active), 9, nil)
	for row, i := range active {
		m := sub.At(i)
		sw := math.Sqrt(weightAt(i))
		x, y := t1.apply(m.X1, m.Y1)
		u, v := t2.apply(m.X2, m.Y2)
		a.SetRow(2*row, []float64{
			sw * x, sw * y, sw, 0, 0, 0, -sw * u * x, -sw * u * y, -sw * u,
		})
		a.SetRow(2*row+1, []float64{
			0, 0, 0, sw * x, sw * y, sw, -sw * v * x, -sw * v * y, -sw * v,
		})
	}

	var svd gmat.SVD
	if !svd.Factorize(a, gmat.SVDFull) {
		return nil, robust.ErrDegenerateSample
	}
	sv := svd.Values(nil)
	// The solution is the right singular vector of the smallest
	// singular value. A second vanishing singular value means the
	// nullspace has dimension two or more: degenerate configuration.
	if sv[0] < 1e-12 || sv[7] < 1e-8*sv[0] {
		return nil, robust.ErrDegenerateSample
	}
	var v gmat.Dense
	svd.VTo(&v)

	var hn Model
	for i := range hn {
		hn[i] = v.At(i, 8)
	}

	// Denormalize: H = T2^-1 * Hn * T1.
	h := t2.inverse().compose(hn.compose(t1.model()))
	if math.Abs(h[8]) > 1e-12 {
		for i := range h {
			h[i] /= h[8]
		}
	}
	return []Model{h}, nil
}

// compose returns the matrix product h * g.
func (h Model) compose(g Model) Model {
	var out Model
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += h[3*i+k] * g[3*k+j]
			}
			out[3*i+j] = sum
		}
	}
	return out
}

// similarity is the normalizing transform p' = s*(p - c).
type similarity struct {
	s      float64
	cx, cy float64
}

func normalization(n int, at func(int) (float64, float64)) (similarity, bool) {
	var cx, cy float64
	for i := 0; i < n; i++ {
		x, y := at(i)
		cx += x
		cy += y
	}
	cx /= float64(n)
	cy /= float64(n)

	var dist float64
	for i := 0; i < n; i++ {
		x, y := at(i)
		dist += math.Hypot(x-cx, y-cy)
	}
	dist /= float64(n)
	if dist < 1e-12 {
		// All points coincide.
		return similarity{}, false
	}
	return similarity{s: math.Sqrt2 / dist, cx: cx, cy: cy}, true
}

func (t similarity) apply(x, y float64) (float64, float64) {
	return t.s * (x - t.cx), t.s * (y - t.cy)
}

func (t similarity) model() Model {
	return Model{
		t.s, 0, -t.s * t.cx,
		0, t.s, -t.s * t.cy,
		0, 0, 1,
	}
}

func (t similarity) inverse() Model {
	return Model{
		1 / t.s, 0, t.cx,
		0, 1 / t.s, t.cy,
		0, 0, 1,
	}
}

// CostEvaluator scores matches by the forward transfer error: the
// Euclidean distance between the mapped first-image point and the
// observed second-image point. Matches mapping to infinity get an
// infinite cost.
type CostEvaluator struct{}

var _ robust.Evaluator[Match, Model] = CostEvaluator{}

func (CostEvaluator) Evaluate(h Model, pop *sample.Population[Match]) []float64 {
	costs := make([]float64, pop.Len())
	for i := range costs {
		m := pop.At(i)
		u, v, ok := h.Apply(m.X1, m.Y1)
		if !ok {
			costs[i] = math.Inf(1)
			continue
		}
		costs[i] = math.Hypot(u-m.X2, v-m.Y2)
	}
	return costs
}
