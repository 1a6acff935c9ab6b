package fusion

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"fusion-engine/internal/common/fuserr"
	"fusion-engine/internal/common/logger"
	"fusion-engine/internal/common/metrics"
)

// fallbackPenalty is applied to the surviving confidence when exactly one
// producer fails or times out.
const fallbackPenalty = 0.9

// Orchestrator coordinates the two producers and the fusion pipeline.
// Its configuration is immutable for the lifetime of the instance; the
// performance tracker is the only shared mutable state.
type Orchestrator struct {
	config    Config
	primary   ProducerFn
	secondary ProducerFn
	tracker   *PerformanceTracker
	logger    logger.Logger
}

// NewOrchestrator validates the configuration and builds an orchestrator.
// Configuration errors surface here, never at request time. A nil log
// disables logging.
func NewOrchestrator(cfg Config, primary, secondary ProducerFn, log logger.Logger) (*Orchestrator, error) {
	if primary == nil || secondary == nil {
		return nil, fuserr.NewInvalidConfigError("both producer functions are required")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	// Defensive copy so later mutation of the caller's slice cannot leak in.
	cfg.CheckpointValues = append([]int(nil), cfg.CheckpointValues...)

	return &Orchestrator{
		config:    cfg,
		primary:   primary,
		secondary: secondary,
		tracker:   newPerformanceTracker(cfg.LearningRate),
		logger: log.With(map[string]interface{}{
			"component": "fusion-orchestrator",
			"algorithm": string(cfg.Algorithm),
		}),
	}, nil
}

// Stats returns a read-only copy of the performance tracker.
func (o *Orchestrator) Stats() Snapshot {
	return o.tracker.Snapshot()
}

// producerOutcome is what one producer goroutine reports back.
type producerOutcome struct {
	result  CandidateResult
	err     error
	latency time.Duration
}

// Process runs both producers concurrently under the shared deadline and
// fuses whatever settled in time. Exactly one failure degrades into a
// penalised single-producer fallback; only a double failure is an error.
func (o *Orchestrator) Process(ctx context.Context, input string) (*FusionResult, error) {
	start := time.Now()
	requestID := uuid.NewString()

	primaryCh := o.launch(ctx, ProducerPrimary, o.primary, input, start)
	secondaryCh := o.launch(ctx, ProducerSecondary, o.secondary, input, start)

	timer := time.NewTimer(o.config.Timeout)
	defer timer.Stop()

	var primaryOut, secondaryOut *producerOutcome
wait:
	for primaryOut == nil || secondaryOut == nil {
		select {
		case out := <-primaryCh:
			primaryOut = &out
		case out := <-secondaryCh:
			secondaryOut = &out
		case <-timer.C:
			break wait
		case <-ctx.Done():
			break wait
		}
	}

	primaryOK := primaryOut != nil && primaryOut.err == nil
	secondaryOK := secondaryOut != nil && secondaryOut.err == nil

	switch {
	case primaryOK && secondaryOK:
		return o.fuse(ctx, requestID, input, primaryOut, secondaryOut, start), nil

	case primaryOK:
		o.logDegraded(ProducerSecondary, secondaryOut)
		return o.fallback(requestID, ProducerPrimary, primaryOut, start), nil

	case secondaryOK:
		o.logDegraded(ProducerPrimary, primaryOut)
		return o.fallback(requestID, ProducerSecondary, secondaryOut, start), nil

	default:
		metrics.FusionRequests.WithLabelValues(string(o.config.Algorithm), "failed").Inc()
		err := fuserr.NewBothProducersFailedError(outcomeDetail(primaryOut), outcomeDetail(secondaryOut))
		o.logger.Error("both producers failed", map[string]interface{}{
			"requestId": requestID,
			"primary":   outcomeDetail(primaryOut),
			"secondary": outcomeDetail(secondaryOut),
		})
		return nil, err
	}
}

// launch starts one producer call. The channel is buffered so a producer
// settling after the deadline is simply abandoned; nothing ever blocks on
// the send. No cancellation is propagated into the producer.
func (o *Orchestrator) launch(ctx context.Context, producer Producer, fn ProducerFn, input string, start time.Time) <-chan producerOutcome {
	ch := make(chan producerOutcome, 1)
	go func() {
		result, err := fn(ctx, input)
		latency := time.Since(start)
		if err == nil {
			err = validateCandidate(producer, &result)
		}
		if err == nil {
			result.ProducedAt = latency
			metrics.ProducerLatency.WithLabelValues(string(producer)).Observe(latency.Seconds())
		}
		ch <- producerOutcome{result: result, err: err, latency: latency}
	}()
	return ch
}

// validateCandidate enforces the producer contract before fusion sees the
// result.
func validateCandidate(producer Producer, result *CandidateResult) error {
	if math.IsNaN(result.Confidence) || math.IsInf(result.Confidence, 0) ||
		result.Confidence < 0 || result.Confidence > 1 {
		return fuserr.NewProducerBadResponseError(string(producer),
			fmt.Sprintf("confidence %v outside [0,1]", result.Confidence))
	}
	if result.Category < 0 || result.Category > 9 {
		return fuserr.NewProducerBadResponseError(string(producer),
			fmt.Sprintf("category %d outside [0,9]", result.Category))
	}
	return nil
}

// fuse handles the both-producers-succeeded path.
func (o *Orchestrator) fuse(ctx context.Context, requestID, input string, primaryOut, secondaryOut *producerOutcome, start time.Time) *FusionResult {
	a, b := primaryOut.result, secondaryOut.result

	strategy := o.config.WeightStrategy
	if o.config.Algorithm == AlgorithmAdaptive {
		// The adaptive algorithm always reads the learned weights; the
		// post-fusion update below writes them back in the same call.
		strategy = StrategyAdaptive
	}
	wA, wB := computeWeights(strategy, o.config, a, b, o.tracker)

	var out fused
	switch o.config.Algorithm {
	case AlgorithmMajorityVote:
		out = fuseMajorityVote(a, b)
	case AlgorithmBayesianAverage:
		out = fuseBayesianAverage(a, b, wA, wB)
	case AlgorithmStacking:
		out = o.fuseStacking(ctx, input, a, b, wA, wB)
	case AlgorithmEnsemble:
		out = fuseEnsemble(a, b, wA, wB)
	default: // AlgorithmWeightedAverage and AlgorithmAdaptive share the formula
		out = fuseWeightedAverage(a, b, wA, wB)
	}

	// The boost keys off secondary's routing category when both succeeded.
	confidence, boosted := o.applyCheckpointBoost(out.confidence, b.Category)

	if o.config.LearningEnabled {
		// Pre-boost, per-producer confidences drive the learning update.
		o.tracker.Update(ProducerPrimary, a.Confidence, a.Confidence >= o.config.MinConfidence)
		o.tracker.Update(ProducerSecondary, b.Confidence, b.Confidence >= o.config.MinConfidence)
	}

	metrics.FusionRequests.WithLabelValues(string(o.config.Algorithm), "fused").Inc()
	metrics.FusionConfidence.Observe(confidence)

	o.logger.Debug("fusion completed", map[string]interface{}{
		"requestId":  requestID,
		"weightA":    wA,
		"weightB":    wB,
		"confidence": confidence,
		"boosted":    boosted,
	})

	return &FusionResult{
		RequestID:              requestID,
		Content:                out.content,
		Confidence:             confidence,
		CheckpointBoostApplied: boosted,
		ProducerLatencies: ProducerLatencies{
			Primary:   primaryOut.latency,
			Secondary: secondaryOut.latency,
		},
		TotalDuration: time.Since(start),
	}
}

// fuseStacking re-invokes the primary producer with a synthesis instruction
// embedding both candidate contents. The meta-call bypasses Process, so it
// can never recurse back into stacking. Its confidence is discarded in favor
// of the weighted-average value; on meta-call failure or timeout the
// weighted-average result stands. The call runs under its own deadline and
// is abandoned through the buffered channel when it misses, so a hung
// backend cannot stall the request.
func (o *Orchestrator) fuseStacking(ctx context.Context, input string, a, b CandidateResult, wA, wB float64) fused {
	base := fuseWeightedAverage(a, b, wA, wB)

	metaCtx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	ch := make(chan producerOutcome, 1)
	go func() {
		result, err := o.primary(metaCtx, stackingPrompt(input, a, b))
		ch <- producerOutcome{result: result, err: err}
	}()

	select {
	case out := <-ch:
		if out.err != nil {
			o.logger.Warn("stacking meta-call failed, keeping weighted-average content", map[string]interface{}{
				"error": out.err.Error(),
			})
			return base
		}
		return fused{content: out.result.Content, confidence: base.confidence}
	case <-metaCtx.Done():
		o.logger.Warn("stacking meta-call timed out, keeping weighted-average content", map[string]interface{}{
			"timeout": o.config.Timeout.String(),
		})
		return base
	}
}

func stackingPrompt(input string, a, b CandidateResult) string {
	parts := []string{
		"Synthesize a single answer from the two candidate answers below.",
		fmt.Sprintf("Question: %s", input),
		fmt.Sprintf("Candidate A (confidence %.2f): %s", a.Confidence, a.Content),
		fmt.Sprintf("Candidate B (confidence %.2f): %s", b.Confidence, b.Content),
		"Answer:",
	}
	return strings.Join(parts, "\n")
}

// fallback handles the exactly-one-producer-survived path: take the survivor
// verbatim, penalise its confidence, then boost off its own category.
func (o *Orchestrator) fallback(requestID string, survivor Producer, out *producerOutcome, start time.Time) *FusionResult {
	result := out.result
	confidence := result.Confidence * fallbackPenalty
	confidence, boosted := o.applyCheckpointBoost(confidence, result.Category)

	if o.config.LearningEnabled {
		o.tracker.Update(survivor, result.Confidence, result.Confidence >= o.config.MinConfidence)
		failed := ProducerSecondary
		if survivor == ProducerSecondary {
			failed = ProducerPrimary
		}
		o.tracker.Update(failed, 0, false)
	}

	metrics.FusionRequests.WithLabelValues(string(o.config.Algorithm), "fallback").Inc()
	metrics.FusionConfidence.Observe(confidence)

	latencies := ProducerLatencies{}
	if survivor == ProducerPrimary {
		latencies.Primary = out.latency
	} else {
		latencies.Secondary = out.latency
	}

	return &FusionResult{
		RequestID:              requestID,
		Content:                result.Content,
		Confidence:             confidence,
		CheckpointBoostApplied: boosted,
		FallbackUsed:           true,
		ProducerLatencies:      latencies,
		TotalDuration:          time.Since(start),
	}
}

// applyCheckpointBoost multiplies the confidence when the category is a
// checkpoint value, clamped to 1.0.
func (o *Orchestrator) applyCheckpointBoost(confidence float64, category int) (float64, bool) {
	for _, cp := range o.config.CheckpointValues {
		if category == cp {
			boosted := confidence * o.config.CheckpointBoost
			if boosted > 1.0 {
				boosted = 1.0
			}
			metrics.FusionCheckpointBoosts.Inc()
			return boosted, true
		}
	}
	return confidence, false
}

func (o *Orchestrator) logDegraded(failed Producer, out *producerOutcome) {
	metrics.FusionFallbacks.WithLabelValues(string(failed)).Inc()
	o.logger.Warn("producer failed, serving degraded fallback", map[string]interface{}{
		"producer": string(failed),
		"detail":   outcomeDetail(out),
	})
}

func outcomeDetail(out *producerOutcome) string {
	if out == nil {
		return "timeout"
	}
	if out.err != nil {
		return out.err.Error()
	}
	return "ok"
}
