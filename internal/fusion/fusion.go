// Package fusion combines the candidate results of two independent inference
// producers into a single higher-confidence answer.
package fusion

import (
	"context"
	"time"
)

// Producer identifies one of the two inference backends.
type Producer string

const (
	ProducerPrimary   Producer = "primary"
	ProducerSecondary Producer = "secondary"
)

// ProducerFn is the contract an inference backend must satisfy. The returned
// CandidateResult is owned by the calling request until consumed by the
// fusion step.
type ProducerFn func(ctx context.Context, input string) (CandidateResult, error)

// Algorithm selects how two candidate results are merged.
type Algorithm string

const (
	AlgorithmWeightedAverage Algorithm = "weighted_average"
	AlgorithmMajorityVote    Algorithm = "majority_vote"
	AlgorithmBayesianAverage Algorithm = "bayesian_average"
	AlgorithmStacking        Algorithm = "stacking"
	AlgorithmEnsemble        Algorithm = "ensemble"
	AlgorithmAdaptive        Algorithm = "adaptive"
)

// WeightStrategy selects how the per-producer weights are derived.
type WeightStrategy string

const (
	StrategyFixed       WeightStrategy = "fixed"
	StrategyConfidence  WeightStrategy = "confidence"
	StrategyPerformance WeightStrategy = "performance"
	StrategyProximity   WeightStrategy = "proximity"
	StrategyAdaptive    WeightStrategy = "adaptive"
)

// CandidateResult is one producer's answer for a given input.
type CandidateResult struct {
	Content    string        `json:"content"`
	Confidence float64       `json:"confidence"` // in [0,1]
	Category   int           `json:"category"`   // opaque routing category in [0,9]
	ProducedAt time.Duration `json:"producedAt"` // elapsed since request start
}

// ProducerLatencies carries the observed per-producer call durations.
// A producer that failed or timed out reports zero.
type ProducerLatencies struct {
	Primary   time.Duration `json:"primary"`
	Secondary time.Duration `json:"secondary"`
}

// FusionResult is the terminal value returned to the caller. It is not
// mutated after construction.
type FusionResult struct {
	RequestID              string            `json:"requestId"`
	Content                string            `json:"content"`
	Confidence             float64           `json:"confidence"`
	CheckpointBoostApplied bool              `json:"checkpointBoostApplied"`
	FallbackUsed           bool              `json:"fallbackUsed"`
	ProducerLatencies      ProducerLatencies `json:"producerLatencies"`
	TotalDuration          time.Duration     `json:"totalDuration"`
}

// ProducerStats is the per-producer slice of a Snapshot.
type ProducerStats struct {
	SuccessCount  uint64  `json:"successCount"`
	TotalCount    uint64  `json:"totalCount"`
	AvgConfidence float64 `json:"avgConfidence"`
	LearnedWeight float64 `json:"learnedWeight"`
}

// Snapshot is a read-only copy of the performance tracker, exported for
// observability.
type Snapshot struct {
	Primary   ProducerStats `json:"primary"`
	Secondary ProducerStats `json:"secondary"`
}
