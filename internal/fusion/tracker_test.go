package fusion

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPerformanceTracker_UpdateMovesAverage(t *testing.T) {
	tracker := newPerformanceTracker(0.1)

	tracker.Update(ProducerPrimary, 1.0, true)
	snap := tracker.Snapshot()

	assert.Equal(t, uint64(1), snap.Primary.TotalCount)
	assert.Equal(t, uint64(1), snap.Primary.SuccessCount)
	assert.InDelta(t, 0.1, snap.Primary.AvgConfidence, 1e-9)

	tracker.Update(ProducerPrimary, 1.0, true)
	snap = tracker.Snapshot()
	assert.InDelta(t, 0.19, snap.Primary.AvgConfidence, 1e-9)
}

func TestPerformanceTracker_LearnedWeightsFrozenDuringWarmup(t *testing.T) {
	tracker := newPerformanceTracker(0.1)

	for i := 0; i < 10; i++ {
		tracker.Update(ProducerPrimary, 0.9, true)
		tracker.Update(ProducerSecondary, 0.1, false)
	}

	snap := tracker.Snapshot()
	assert.InDelta(t, 0.5, snap.Primary.LearnedWeight, 1e-9)
	assert.InDelta(t, 0.5, snap.Secondary.LearnedWeight, 1e-9)
}

func TestPerformanceTracker_LearnedWeightsSumToOne(t *testing.T) {
	tracker := newPerformanceTracker(0.1)

	for i := 0; i < 30; i++ {
		tracker.Update(ProducerPrimary, 0.8, i%4 != 0) // 75% success
		tracker.Update(ProducerSecondary, 0.6, i%2 == 0)
	}

	snap := tracker.Snapshot()
	assert.InDelta(t, 1.0, snap.Primary.LearnedWeight+snap.Secondary.LearnedWeight, 1e-9)
	assert.Greater(t, snap.Primary.LearnedWeight, snap.Secondary.LearnedWeight)
}

func TestPerformanceTracker_ConvergesToReliableProducer(t *testing.T) {
	tracker := newPerformanceTracker(0.1)

	for i := 0; i < 1000; i++ {
		tracker.Update(ProducerPrimary, 0.9, true)
		tracker.Update(ProducerSecondary, 0.2, false)
	}

	snap := tracker.Snapshot()
	assert.Greater(t, snap.Primary.LearnedWeight, 0.9)
	assert.Less(t, snap.Secondary.LearnedWeight, 0.1)
}

func TestPerformanceTracker_ConcurrentUpdates(t *testing.T) {
	tracker := newPerformanceTracker(0.1)

	const workers = 8
	const updatesPerWorker = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < updatesPerWorker; i++ {
				tracker.Update(ProducerPrimary, 0.7, true)
				tracker.Update(ProducerSecondary, 0.5, false)
			}
		}()
	}
	wg.Wait()

	snap := tracker.Snapshot()
	assert.Equal(t, uint64(workers*updatesPerWorker), snap.Primary.TotalCount)
	assert.Equal(t, uint64(workers*updatesPerWorker), snap.Secondary.TotalCount)
	assert.InDelta(t, 1.0, snap.Primary.LearnedWeight+snap.Secondary.LearnedWeight, 1e-9)
}
