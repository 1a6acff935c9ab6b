package fusion

import (
	"fmt"
	"time"

	"fusion-engine/internal/common/fuserr"
)

const (
	defaultCheckpointBoost = 1.5
	defaultLearningRate    = 0.1
	defaultTimeout         = 5000 * time.Millisecond

	// fixedWeightPrimary/Secondary are the Fixed strategy weights, also the
	// fallback whenever another strategy cannot produce usable weights.
	fixedWeightPrimary   = 0.6
	fixedWeightSecondary = 0.4

	// warmupCount is the per-producer observation count below which the
	// performance strategy keeps using fixed weights.
	warmupCount = 10
)

// DefaultCheckpointValues are the three designated routing categories that
// trigger a confidence boost.
func DefaultCheckpointValues() []int { return []int{3, 6, 9} }

// Config is captured once at orchestrator construction and never re-read
// from mutable state afterwards.
type Config struct {
	Algorithm        Algorithm
	WeightStrategy   WeightStrategy
	MinConfidence    float64
	CheckpointBoost  float64
	CheckpointValues []int
	LearningEnabled  bool
	LearningRate     float64
	Timeout          time.Duration
}

// DefaultConfig returns the production defaults: ensemble fusion with
// confidence-based weighting.
func DefaultConfig() Config {
	return Config{
		Algorithm:        AlgorithmEnsemble,
		WeightStrategy:   StrategyConfidence,
		MinConfidence:    0.5,
		CheckpointBoost:  defaultCheckpointBoost,
		CheckpointValues: DefaultCheckpointValues(),
		LearningEnabled:  true,
		LearningRate:     defaultLearningRate,
		Timeout:          defaultTimeout,
	}
}

// ParseAlgorithm maps a config string onto an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AlgorithmWeightedAverage, AlgorithmMajorityVote, AlgorithmBayesianAverage,
		AlgorithmStacking, AlgorithmEnsemble, AlgorithmAdaptive:
		return Algorithm(s), nil
	}
	return "", fuserr.NewInvalidConfigError(fmt.Sprintf("unknown algorithm %q", s))
}

// ParseWeightStrategy maps a config string onto a WeightStrategy.
func ParseWeightStrategy(s string) (WeightStrategy, error) {
	switch WeightStrategy(s) {
	case StrategyFixed, StrategyConfidence, StrategyPerformance,
		StrategyProximity, StrategyAdaptive:
		return WeightStrategy(s), nil
	}
	return "", fuserr.NewInvalidConfigError(fmt.Sprintf("unknown weight strategy %q", s))
}

// validate fails fast at construction so request-time processing never sees
// a broken configuration.
func (c *Config) validate() error {
	if _, err := ParseAlgorithm(string(c.Algorithm)); err != nil {
		return err
	}
	if _, err := ParseWeightStrategy(string(c.WeightStrategy)); err != nil {
		return err
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fuserr.NewInvalidConfigError(fmt.Sprintf("min confidence %v outside [0,1]", c.MinConfidence))
	}
	if c.CheckpointBoost <= 0 {
		return fuserr.NewInvalidConfigError(fmt.Sprintf("checkpoint boost %v must be positive", c.CheckpointBoost))
	}
	if len(c.CheckpointValues) != 3 {
		return fuserr.NewInvalidConfigError(fmt.Sprintf("expected 3 checkpoint values, got %d", len(c.CheckpointValues)))
	}
	seen := map[int]bool{}
	for _, v := range c.CheckpointValues {
		if v < 0 || v > 9 {
			return fuserr.NewInvalidConfigError(fmt.Sprintf("checkpoint value %d outside [0,9]", v))
		}
		if seen[v] {
			return fuserr.NewInvalidConfigError(fmt.Sprintf("duplicate checkpoint value %d", v))
		}
		seen[v] = true
	}
	if c.LearningRate <= 0 || c.LearningRate > 1 {
		return fuserr.NewInvalidConfigError(fmt.Sprintf("learning rate %v outside (0,1]", c.LearningRate))
	}
	if c.Timeout <= 0 {
		return fuserr.NewInvalidConfigError(fmt.Sprintf("timeout %v must be positive", c.Timeout))
	}
	if c.WeightStrategy == StrategyPerformance && !c.LearningEnabled {
		return fuserr.NewInvalidConfigError("performance weight strategy requires learning to be enabled")
	}
	return nil
}
