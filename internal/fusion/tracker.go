package fusion

import "sync"

// PerformanceTracker holds rolling per-producer statistics shared by every
// in-flight request of one orchestrator. A single mutex guards both sides so
// readers always observe a consistent snapshot, never a half-applied update.
type PerformanceTracker struct {
	mu           sync.Mutex
	learningRate float64
	primary      producerStats
	secondary    producerStats
}

type producerStats struct {
	successCount  uint64
	totalCount    uint64
	avgConfidence float64
	learnedWeight float64
}

func newPerformanceTracker(learningRate float64) *PerformanceTracker {
	return &PerformanceTracker{
		learningRate: learningRate,
		primary:      producerStats{learnedWeight: 0.5},
		secondary:    producerStats{learnedWeight: 0.5},
	}
}

// Update records one observation for a producer. The confidence feeds an
// exponential moving average; succeeded feeds the success rate. Once both
// producers have more than warmupCount observations the learned weights are
// renormalised from the success rates so they always sum to 1.
func (t *PerformanceTracker) Update(producer Producer, confidence float64, succeeded bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := &t.primary
	if producer == ProducerSecondary {
		stats = &t.secondary
	}

	stats.totalCount++
	if succeeded {
		stats.successCount++
	}
	stats.avgConfidence = stats.avgConfidence*(1-t.learningRate) + confidence*t.learningRate

	if t.primary.totalCount > warmupCount && t.secondary.totalCount > warmupCount {
		rateA := t.primary.successRate()
		rateB := t.secondary.successRate()
		if sum := rateA + rateB; sum > 0 {
			t.primary.learnedWeight = rateA / sum
			t.secondary.learnedWeight = 1 - t.primary.learnedWeight
		}
	}
}

// Snapshot returns a read-only copy of the tracker state.
func (t *PerformanceTracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Snapshot{
		Primary:   t.primary.export(),
		Secondary: t.secondary.export(),
	}
}

func (s *producerStats) successRate() float64 {
	if s.totalCount == 0 {
		return 0
	}
	return float64(s.successCount) / float64(s.totalCount)
}

func (s *producerStats) export() ProducerStats {
	return ProducerStats{
		SuccessCount:  s.successCount,
		TotalCount:    s.totalCount,
		AvgConfidence: s.avgConfidence,
		LearnedWeight: s.learnedWeight,
	}
}
