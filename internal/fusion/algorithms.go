package fusion

// fused is an intermediate (content, confidence) pair produced by one
// fusion algorithm before checkpoint boosting.
type fused struct {
	content    string
	confidence float64
}

// Bayesian priors for the primary and secondary producer.
const (
	bayesPriorPrimary   = 0.6
	bayesPriorSecondary = 0.4
)

// fuseWeightedAverage blends the confidences; the content follows the larger
// weight, ties favor primary.
func fuseWeightedAverage(a, b CandidateResult, wA, wB float64) fused {
	out := fused{confidence: wA*a.Confidence + wB*b.Confidence}
	if wA >= wB {
		out.content = a.Content
	} else {
		out.content = b.Content
	}
	return out
}

// fuseMajorityVote keeps the more confident candidate outright, ties favor
// primary.
func fuseMajorityVote(a, b CandidateResult) fused {
	if a.Confidence >= b.Confidence {
		return fused{content: a.Content, confidence: a.Confidence}
	}
	return fused{content: b.Content, confidence: b.Confidence}
}

// fuseBayesianAverage weighs the candidates by posterior probability under
// fixed priors. A zero evidence mass degrades to an uninformative 0.5
// posterior; ties favor primary.
func fuseBayesianAverage(a, b CandidateResult, wA, wB float64) fused {
	evidenceA := a.Confidence * wA * bayesPriorPrimary
	evidenceB := b.Confidence * wB * bayesPriorSecondary

	posteriorA := 0.5
	if total := evidenceA + evidenceB; total > 0 {
		posteriorA = evidenceA / total
	}

	out := fused{confidence: posteriorA*a.Confidence + (1-posteriorA)*b.Confidence}
	if posteriorA >= 0.5 {
		out.content = a.Content
	} else {
		out.content = b.Content
	}
	return out
}

// fuseEnsemble runs weighted average, majority vote and bayesian average
// independently: the final confidence is their mean, the final content comes
// from the single most confident sub-result (first wins on exact ties).
func fuseEnsemble(a, b CandidateResult, wA, wB float64) fused {
	subs := []fused{
		fuseWeightedAverage(a, b, wA, wB),
		fuseMajorityVote(a, b),
		fuseBayesianAverage(a, b, wA, wB),
	}

	best := subs[0]
	mean := 0.0
	for _, sub := range subs {
		mean += sub.confidence
		if sub.confidence > best.confidence {
			best = sub
		}
	}

	return fused{content: best.content, confidence: mean / float64(len(subs))}
}
