package robust

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/robustgeo/robustfit/consensus"
	"github.com/robustgeo/robustfit/sample"
)

// RANSAC is the classic hypothesize-and-test engine: draw a minimal
// sample, fit candidate models, score them by consensus, keep the
// best. The loop stops at max_iterations or at the adaptive bound
// derived from the best inlier ratio seen so far.
//
// Trials are independent; with Workers > 1 the sampling pipeline runs
// on multiple goroutines against the same immutable population, each
// with its own random stream seeded rng_seed + workerIndex. Only the
// compare-and-replace of the shared best result is serialized.
type RANSAC[T, M any] struct {
	est  Estimator[T, M]
	eval Evaluator[T, M]
	cfg  Config
}

func NewRANSAC[T, M any](est Estimator[T, M], eval Evaluator[T, M], cfg Config) *RANSAC[T, M] {
	return &RANSAC[T, M]{est: est, eval: eval, cfg: cfg}
}

// Estimate runs the loop on pop. Cancelling ctx is cooperative: the
// best result found so far is returned if one exists, ctx's error
// otherwise.
func (r *RANSAC[T, M]) Estimate(ctx context.Context, pop *sample.Population[T]) (*Result[M], error) {
	n := pop.Len()
	m := r.cfg.MinSampleSize
	if n < m {
		return nil, fmt.Errorf("%w: %d observations, minimal sample %d", ErrInsufficientPopulation, n, m)
	}
	workers := r.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	mode := r.cfg.Scoring.Mode()

	var (
		mu       sync.Mutex
		best     *Result[M]
		iter     atomic.Int64
		required atomic.Int64
	)
	required.Store(int64(r.cfg.MaxIterations))

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		rng := rand.New(rand.NewSource(r.cfg.Seed + int64(w)))
		g.Go(func() error {
			failed := 0
			for {
				select {
				case <-gctx.Done():
					return nil
				default:
				}
				i := iter.Add(1)
				if i > int64(r.cfg.MaxIterations) || i > required.Load() {
					return nil
				}

				sub, err := sample.Draw(pop, m, rng)
				if err != nil {
					return err
				}
				models, err := r.est.Fit(sub)
				if err != nil || len(models) == 0 {
					// A degenerate or otherwise failed fit does not
					// consume a useful trial; return the slot and
					// retry under the budget.
					iter.Add(-1)
					failed++
					if failed > r.cfg.MaxDegenerateRetries {
						return fmt.Errorf("%w: %d consecutive failed fits", ErrDegenerateSampleExhausted, failed)
					}
					continue
				}
				failed = 0

				for _, model := range models {
					costs := r.eval.Evaluate(model, pop)
					if len(costs) != n {
						continue
					}
					mask, score := consensus.Evaluate(costs, r.cfg.InlierThreshold)
					mu.Lock()
					if best == nil || score.Better(best.Score, mode) {
						best = &Result[M]{
							Model:         model,
							Inliers:       mask,
							Score:         score,
							FoundAt:       int(i),
							PopulationLen: n,
						}
						required.Store(requiredTrials(len(mask), n, m, r.cfg.Confidence))
					}
					mu.Unlock()
				}
			}
		})
	}
	err := g.Wait()

	mu.Lock()
	res := best
	mu.Unlock()
	if err != nil {
		return nil, err
	}
	if res == nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, ErrNoConvergentModel
	}
	total := iter.Load()
	if total > int64(r.cfg.MaxIterations) {
		total = int64(r.cfg.MaxIterations)
	}
	res.Iterations = int(total)
	return res, nil
}

// requiredTrials is the adaptive stopping bound
// N = ceil(log(1-confidence) / log(1-w^m)) for inlier ratio
// w = inliers/n. w is clamped away from 0 and 1 to keep the logarithms
// finite.
func requiredTrials(inliers, n, m int, confidence float64) int64 {
	w := float64(inliers) / float64(n)
	const eps = 1e-6
	if w < eps {
		w = eps
	}
	if w > 1-eps {
		w = 1 - eps
	}
	p := math.Pow(w, float64(m))
	if p >= 1-1e-12 {
		return 1
	}
	trials := math.Ceil(math.Log(1-confidence) / math.Log(1-p))
	if trials < 1 {
		return 1
	}
	if trials > math.MaxInt64/2 {
		return math.MaxInt64 / 2
	}
	return int64(trials)
}
