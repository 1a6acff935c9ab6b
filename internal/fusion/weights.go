package fusion

import "math"

// computeWeights derives the normalised (wA, wB) pair for one fusion step.
// Every branch that cannot produce usable weights degrades to the fixed
// 0.6/0.4 split.
func computeWeights(strategy WeightStrategy, cfg Config, a, b CandidateResult, tracker *PerformanceTracker) (float64, float64) {
	switch strategy {
	case StrategyConfidence:
		sum := a.Confidence + b.Confidence
		if sum == 0 {
			return fixedWeightPrimary, fixedWeightSecondary
		}
		wA := a.Confidence / sum
		return wA, 1 - wA

	case StrategyPerformance:
		snap := tracker.Snapshot()
		if snap.Primary.TotalCount < warmupCount || snap.Secondary.TotalCount < warmupCount {
			return fixedWeightPrimary, fixedWeightSecondary
		}
		rateA := successRate(snap.Primary)
		rateB := successRate(snap.Secondary)
		sum := rateA + rateB
		if sum == 0 {
			return fixedWeightPrimary, fixedWeightSecondary
		}
		wA := rateA / sum
		return wA, 1 - wA

	case StrategyProximity:
		rawA := 1 / (1 + 0.2*checkpointDistance(a.Category, cfg.CheckpointValues))
		rawB := 1 / (1 + 0.2*checkpointDistance(b.Category, cfg.CheckpointValues))
		sum := rawA + rawB
		wA := rawA / sum
		return wA, 1 - wA

	case StrategyAdaptive:
		snap := tracker.Snapshot()
		rawA := (a.Confidence + snap.Primary.LearnedWeight) / 2
		rawB := (b.Confidence + snap.Secondary.LearnedWeight) / 2
		sum := rawA + rawB
		if sum == 0 {
			return fixedWeightPrimary, fixedWeightSecondary
		}
		wA := rawA / sum
		return wA, 1 - wA

	default: // StrategyFixed
		return fixedWeightPrimary, fixedWeightSecondary
	}
}

func successRate(s ProducerStats) float64 {
	if s.TotalCount == 0 {
		return 0
	}
	return float64(s.SuccessCount) / float64(s.TotalCount)
}

// checkpointDistance is the distance from a category to its nearest
// checkpoint value.
func checkpointDistance(category int, checkpoints []int) float64 {
	best := math.Inf(1)
	for _, cp := range checkpoints {
		if d := math.Abs(float64(category - cp)); d < best {
			best = d
		}
	}
	return best
}
