package robust

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/robustgeo/robustfit/consensus"
)

// EngineType selects the estimation engine.
type EngineType string

const (
	EngineRANSAC  EngineType = "ransac"
	EngineGNCIRLS EngineType = "gnc_irls"
)

// ScoringMode selects how candidate models are ranked.
type ScoringMode string

const (
	ScoringCount ScoringMode = "count"
	ScoringMSAC  ScoringMode = "msac"
)

// Mode converts the configured scoring mode to the consensus package
// representation.
func (s ScoringMode) Mode() consensus.Mode {
	if s == ScoringMSAC {
		return consensus.MSAC
	}
	return consensus.Count
}

// Config is the complete option surface of an estimation run. Zero
// values of optional fields are filled by Default; Validate must pass
// before the config is handed to an engine.
type Config struct {
	// Engine selects the estimation engine. Default: ransac.
	Engine EngineType `yaml:"engine"`
	// MinSampleSize is the minimal sample size m of the injected
	// estimator. Required, no default.
	MinSampleSize int `yaml:"min_sample_size"`
	// MaxIterations is the hard ceiling on RANSAC trials.
	// Default: 1000.
	MaxIterations int `yaml:"max_iterations"`
	// Confidence is the desired probability of having sampled at
	// least one all-inlier minimal sample, in (0,1). Default: 0.99.
	Confidence float64 `yaml:"confidence"`
	// InlierThreshold is the cost at or below which an observation
	// counts as an inlier. Must be positive. Default: 1.0.
	InlierThreshold float64 `yaml:"inlier_threshold"`
	// Scoring selects count or msac ranking. Default: count.
	Scoring ScoringMode `yaml:"scoring_mode"`
	// EnableFinalRefit refits the model over the discovered inlier
	// set after the engine terminates. Best-effort: a refit that
	// fails or scores worse is discarded. Default: true.
	EnableFinalRefit bool `yaml:"enable_final_refit"`
	// MaxDegenerateRetries bounds consecutive failed fits before the
	// run aborts. Default: 100.
	MaxDegenerateRetries int `yaml:"max_degenerate_retries"`
	// Workers is the number of concurrent RANSAC sampling goroutines.
	// Worker i derives its random stream from rng_seed + i. Zero
	// means 1. Default: 1.
	Workers int `yaml:"workers"`

	// MuInit is the initial GNC control parameter; large values start
	// the loss near-quadratic. Default: 64.
	MuInit float64 `yaml:"mu_init"`
	// MuFactor divides mu every outer iteration until mu reaches 1.
	// Must be greater than 1. Default: 1.4.
	MuFactor float64 `yaml:"mu_factor"`
	// MaxOuterIterations bounds the GNC-IRLS outer loop.
	// Default: 100.
	MaxOuterIterations int `yaml:"max_outer_iterations"`
	// ConvergenceTolerance stops the GNC-IRLS loop once the L1 change
	// of the weight vector falls below it. Default: 1e-3.
	ConvergenceTolerance float64 `yaml:"convergence_tolerance"`
	// WeightCutoff restricts the fit to observations with at least
	// this weight when the injected estimator does not support
	// weighting. Default: 0.5.
	WeightCutoff float64 `yaml:"weight_cutoff"`

	// Seed is the base seed of the deterministic random streams.
	// Default: 1.
	Seed int64 `yaml:"rng_seed"`
}

// Default returns the documented default configuration.
// MinSampleSize has no sensible default and must be set by the caller.
func Default() Config {
	return Config{
		Engine:               EngineRANSAC,
		MaxIterations:        1000,
		Confidence:           0.99,
		InlierThreshold:      1.0,
		Scoring:              ScoringCount,
		EnableFinalRefit:     true,
		MaxDegenerateRetries: 100,
		Workers:              1,
		MuInit:               64,
		MuFactor:             1.4,
		MaxOuterIterations:   100,
		ConvergenceTolerance: 1e-3,
		WeightCutoff:         0.5,
		Seed:                 1,
	}
}

// Load reads a yaml config file on top of the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the full option surface. Engines assume a validated
// config and do not re-check.
func (c Config) Validate() error {
	switch c.Engine {
	case EngineRANSAC, EngineGNCIRLS:
	default:
		return fmt.Errorf("unknown engine %q", c.Engine)
	}
	switch c.Scoring {
	case ScoringCount, ScoringMSAC:
	default:
		return fmt.Errorf("unknown scoring mode %q", c.Scoring)
	}
	if c.MinSampleSize < 1 {
		return fmt.Errorf("min_sample_size must be at least 1, got %d", c.MinSampleSize)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1, got %d", c.MaxIterations)
	}
	if c.Confidence <= 0 || c.Confidence >= 1 {
		return fmt.Errorf("confidence must be in (0,1), got %g", c.Confidence)
	}
	if c.InlierThreshold <= 0 {
		return fmt.Errorf("inlier_threshold must be positive, got %g", c.InlierThreshold)
	}
	if c.MaxDegenerateRetries < 0 {
		return fmt.Errorf("max_degenerate_retries must not be negative, got %d", c.MaxDegenerateRetries)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.MuInit < 1 {
		return fmt.Errorf("mu_init must be at least 1, got %g", c.MuInit)
	}
	if c.MuFactor <= 1 {
		return fmt.Errorf("mu_factor must be greater than 1, got %g", c.MuFactor)
	}
	if c.MaxOuterIterations < 1 {
		return fmt.Errorf("max_outer_iterations must be at least 1, got %d", c.MaxOuterIterations)
	}
	if c.ConvergenceTolerance <= 0 {
		return fmt.Errorf("convergence_tolerance must be positive, got %g", c.ConvergenceTolerance)
	}
	if c.WeightCutoff < 0 || c.WeightCutoff > 1 {
		return fmt.Errorf("weight_cutoff must be in [0,1], got %g", c.WeightCutoff)
	}
	return nil
}
