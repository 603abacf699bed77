package robust

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, EngineRANSAC, cfg.Engine)
	assert.Equal(t, 1000, cfg.MaxIterations)
	assert.Equal(t, 0.99, cfg.Confidence)
	assert.Equal(t, ScoringCount, cfg.Scoring)
	assert.True(t, cfg.EnableFinalRefit)
	assert.Equal(t, 64.0, cfg.MuInit)
	assert.Equal(t, 1.4, cfg.MuFactor)
	assert.Equal(t, int64(1), cfg.Seed)

	// MinSampleSize has no default and must fail validation until the
	// caller sets it.
	assert.Error(t, cfg.Validate())
	cfg.MinSampleSize = 3
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `engine: gnc_irls
min_sample_size: 4
inlier_threshold: 1.5
scoring_mode: msac
mu_init: 16
rng_seed: 99
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, EngineGNCIRLS, cfg.Engine)
	assert.Equal(t, 4, cfg.MinSampleSize)
	assert.Equal(t, 1.5, cfg.InlierThreshold)
	assert.Equal(t, ScoringMSAC, cfg.Scoring)
	assert.Equal(t, 16.0, cfg.MuInit)
	assert.Equal(t, int64(99), cfg.Seed)

	// Unset keys keep their defaults.
	assert.Equal(t, 1000, cfg.MaxIterations)
	assert.Equal(t, 0.99, cfg.Confidence)
	assert.Equal(t, 1.4, cfg.MuFactor)
}

func TestLoad_NotExists(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	path := writeConfig(t, `min_sample_size: 4
confidence: 2.0
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.MinSampleSize = 3
		return cfg
	}

	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown engine", func(c *Config) { c.Engine = "lmeds" }},
		{"unknown scoring mode", func(c *Config) { c.Scoring = "mlesac" }},
		{"zero sample size", func(c *Config) { c.MinSampleSize = 0 }},
		{"zero iterations", func(c *Config) { c.MaxIterations = 0 }},
		{"confidence at 1", func(c *Config) { c.Confidence = 1 }},
		{"confidence at 0", func(c *Config) { c.Confidence = 0 }},
		{"negative threshold", func(c *Config) { c.InlierThreshold = -1 }},
		{"negative retries", func(c *Config) { c.MaxDegenerateRetries = -1 }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"mu below 1", func(c *Config) { c.MuInit = 0.5 }},
		{"mu factor at 1", func(c *Config) { c.MuFactor = 1 }},
		{"zero outer iterations", func(c *Config) { c.MaxOuterIterations = 0 }},
		{"zero tolerance", func(c *Config) { c.ConvergenceTolerance = 0 }},
		{"cutoff above 1", func(c *Config) { c.WeightCutoff = 1.5 }},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			require.NoError(t, cfg.Validate())
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
