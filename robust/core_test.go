package robust

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/robustgeo/robustfit/sample"
)

func TestNew_InvalidConfig(t *testing.T) {
	cfg := Default() // MinSampleSize left unset
	if _, err := New[float64, float64](midEstimator{}, absEvaluator{}, cfg); err == nil {
		t.Error("Expected an error for an invalid config")
	}
}

func TestCore_InsufficientPopulation(t *testing.T) {
	cfg := ransacConfig()
	cfg.MinSampleSize = 5
	c, err := New[float64, float64](midEstimator{}, absEvaluator{}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Estimate(context.Background(), sample.NewPopulation([]float64{1, 2, 3}))
	if !errors.Is(err, ErrInsufficientPopulation) {
		t.Errorf("Expected ErrInsufficientPopulation, got %v", err)
	}
}

func TestCore_EngineSelection(t *testing.T) {
	for _, engine := range []EngineType{EngineRANSAC, EngineGNCIRLS} {
		t.Run(string(engine), func(t *testing.T) {
			cfg := ransacConfig()
			cfg.Engine = engine
			cfg.InlierThreshold = 1.0
			c, err := New[float64, float64](weightedMidEstimator{}, absEvaluator{}, cfg)
			if err != nil {
				t.Fatal(err)
			}
			res, err := c.Estimate(context.Background(), constantPopulation())
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(res.Model-5.0) > 0.5 {
				t.Errorf("Expected model near 5.0, got %f", res.Model)
			}
		})
	}
}

func TestCore_FinalRefit(t *testing.T) {
	pop := constantPopulation()

	// Exact mean of the 70 ground-truth inliers; the refit over the
	// full inlier subset must land on it.
	var inlierMean float64
	for i := 0; i < 70; i++ {
		inlierMean += pop.At(i)
	}
	inlierMean /= 70

	cfg := ransacConfig()
	cfg.EnableFinalRefit = true
	c, err := New[float64, float64](midEstimator{}, absEvaluator{}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	res, err := c.Estimate(context.Background(), pop)
	if err != nil {
		t.Fatal(err)
	}
	if res.Score.Inliers != 70 {
		t.Fatalf("Expected 70 inliers, got %d", res.Score.Inliers)
	}
	if math.Abs(res.Model-inlierMean) > 1e-9 {
		t.Errorf("Expected the refit model %f, got %f", inlierMean, res.Model)
	}
}

// refitRejectingEstimator fits minimal pairs but fails on the larger
// refit subset.
type refitRejectingEstimator struct{}

func (refitRejectingEstimator) Fit(sub sample.Subset[float64]) ([]float64, error) {
	if sub.Len() > 2 {
		return nil, errors.New("refit unsupported")
	}
	return midEstimator{}.Fit(sub)
}

func TestCore_RefitFailureKeepsResult(t *testing.T) {
	pop := constantPopulation()

	run := func(refit bool) *Result[float64] {
		cfg := ransacConfig()
		cfg.EnableFinalRefit = refit
		c, err := New[float64, float64](refitRejectingEstimator{}, absEvaluator{}, cfg)
		if err != nil {
			t.Fatal(err)
		}
		res, err := c.Estimate(context.Background(), pop)
		if err != nil {
			t.Fatal(err)
		}
		return res
	}

	with, without := run(true), run(false)
	if with.Model != without.Model || with.Score != without.Score {
		t.Errorf("A failed refit must keep the engine result: %+v != %+v", with, without)
	}
}
