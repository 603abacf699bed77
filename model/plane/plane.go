// Package plane fits an infinite plane to 3D points. It is the
// reference estimator/evaluator pair for point-cloud data: a minimal
// sample of three non-collinear points determines the plane exactly,
// larger or weighted subsets are fit by total least squares.
package plane

import (
	"math"

	"github.com/seqsense/pcgol/mat"
	gmat "gonum.org/v1/gonum/mat"

	"github.com/robustgeo/robustfit/robust"
	"github.com/robustgeo/robustfit/sample"
)

// MinSamples is the minimal sample size of the plane estimator.
const MinSamples = 3

// Model is a plane in Hessian normal form: Normal.Dot(p) == D with a
// unit normal.
type Model struct {
	Normal mat.Vec3
	D      float32
}

const epsilon = 1e-10

// Estimator fits planes to point subsets. It is stateless and safe
// for concurrent use.
type Estimator struct{}

var (
	_ robust.Estimator[mat.Vec3, Model]         = Estimator{}
	_ robust.WeightedEstimator[mat.Vec3, Model] = Estimator{}
)

// Fit determines the plane through a 3-point minimal sample, or the
// total least squares plane of a larger subset. Collinear samples are
// degenerate.
func (e Estimator) Fit(sub sample.Subset[mat.Vec3]) ([]Model, error) {
	if sub.Len() == MinSamples {
		p0, p1, p2 := sub.At(0), sub.At(1), sub.At(2)
		norm := p1.Sub(p0).Cross(p2.Sub(p0))
		if float64(norm.NormSq()) < epsilon {
			return nil, robust.ErrDegenerateSample
		}
		norm = norm.Normalized()
		return []Model{{Normal: norm, D: norm.Dot(p0)}}, nil
	}
	return e.FitWeighted(sub, nil)
}

// FitWeighted fits the weighted total least squares plane: the normal
// is the singular vector of the weighted scatter matrix with the
// smallest singular value. A nil weight slice means unit weights.
func (e Estimator) FitWeighted(sub sample.Subset[mat.Vec3], weights []float64) ([]Model, error) {
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

	var cx, cy, cz, wSum float64
	for i := 0; i < n; i++ {
		w := weightAt(i)
		p := sub.At(i)
		cx += w * float64(p[0])
		cy += w * float64(p[1])
		cz += w * float64(p[2])
		wSum += w
	}
	if wSum < epsilon {
		return nil, robust.ErrDegenerateSample
	}
	cx /= wSum
	cy /= wSum
	cz /= wSum

	var s [9]float64
	for i := 0; i < n; i++ {
		w := weightAt(i)
		if w == 0 {
			continue
		}
		p := sub.At(i)
		dx, dy, dz := float64(p[0])-cx, float64(p[1])-cy, float64(p[2])-cz
		s[0] += w * dx * dx
		s[1] += w * dx * dy
		s[2] += w * dx * dz
		s[4] += w * dy * dy
		s[5] += w * dy * dz
		s[8] += w * dz * dz
	}
	s[3], s[6], s[7] = s[1], s[2], s[5]

	var svd gmat.SVD
	if !svd.Factorize(gmat.NewDense(3, 3, s[:]), gmat.SVDFull) {
		return nil, robust.ErrDegenerateSample
	}
	sv := svd.Values(nil)
	// Rank below 2 means the points do not span a plane.
	if sv[1] < epsilon*(sv[0]+epsilon) {
		return nil, robust.ErrDegenerateSample
	}
	var u gmat.Dense
	svd.UTo(&u)

	norm := mat.Vec3{float32(u.At(0, 2)), float32(u.At(1, 2)), float32(u.At(2, 2))}
	norm = norm.Normalized()
	d := norm.Dot(mat.Vec3{float32(cx), float32(cy), float32(cz)})
	return []Model{{Normal: norm, D: d}}, nil
}

// CostEvaluator scores points by absolute distance to the plane.
type CostEvaluator struct{}

var _ robust.Evaluator[mat.Vec3, Model] = CostEvaluator{}

func (CostEvaluator) Evaluate(m Model, pop *sample.Population[mat.Vec3]) []float64 {
	costs := make([]float64, pop.Len())
	for i := range costs {
		costs[i] = math.Abs(float64(m.Normal.Dot(pop.At(i)) - m.D))
	}
	return costs
}
