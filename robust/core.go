package robust

import (
	"context"
	"fmt"

	"github.com/robustgeo/robustfit/consensus"
	"github.com/robustgeo/robustfit/sample"
)

// Core is the estimation front-end: it validates the configuration
// once, selects the engine, and applies the optional shared final
// refit over the discovered inlier set.
type Core[T, M any] struct {
	est  Estimator[T, M]
	eval Evaluator[T, M]
	cfg  Config
}

// New builds a Core from the injected collaborators. The config is
// validated here; engines assume it is valid.
func New[T, M any](est Estimator[T, M], eval Evaluator[T, M], cfg Config) (*Core[T, M], error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Core[T, M]{est: est, eval: eval, cfg: cfg}, nil
}

// Estimate runs the configured engine on pop and returns its terminal
// result, refined by the final refit when enabled.
func (c *Core[T, M]) Estimate(ctx context.Context, pop *sample.Population[T]) (*Result[M], error) {
	if pop.Len() < c.cfg.MinSampleSize {
		return nil, fmt.Errorf("%w: %d observations, minimal sample %d",
			ErrInsufficientPopulation, pop.Len(), c.cfg.MinSampleSize)
	}

	var (
		res *Result[M]
		err error
	)
	switch c.cfg.Engine {
	case EngineGNCIRLS:
		res, err = NewGNCIRLS(c.est, c.eval, c.cfg).Estimate(ctx, pop)
	default:
		res, err = NewRANSAC(c.est, c.eval, c.cfg).Estimate(ctx, pop)
	}
	if err != nil {
		return nil, err
	}
	if c.cfg.EnableFinalRefit {
		c.refit(res, pop)
	}
	return res, nil
}

// refit refits over the full inlier subset. Best-effort: a refit that
// fails, or whose consensus score is worse than the engine result, is
// discarded.
func (c *Core[T, M]) refit(res *Result[M], pop *sample.Population[T]) {
	if len(res.Inliers) < c.cfg.MinSampleSize {
		return
	}
	models, err := c.est.Fit(sample.NewSubset(pop, res.Inliers))
	if err != nil {
		return
	}
	mode := c.cfg.Scoring.Mode()
	for _, model := range models {
		costs := c.eval.Evaluate(model, pop)
		if len(costs) != pop.Len() {
			continue
		}
		mask, score := consensus.Evaluate(costs, c.cfg.InlierThreshold)
		if score == res.Score || score.Better(res.Score, mode) {
			res.Model = model
			res.Inliers = mask
			res.Score = score
		}
	}
}
