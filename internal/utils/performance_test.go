package utils

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformanceTrackerAggregates(t *testing.T) {
	pt := NewPerformanceTracker()
	pt.Record("fetch record", 100*time.Millisecond)
	pt.Record("fetch record", 300*time.Millisecond)
	pt.Record("fetch history", 50*time.Millisecond)

	steps := pt.Aggregates()
	require.Len(t, steps, 2)

	assert.Equal(t, "fetch record", steps[0].StepName)
	assert.Equal(t, 2, steps[0].Count)
	assert.Equal(t, 400*time.Millisecond, steps[0].Total)
	assert.Equal(t, 200*time.Millisecond, steps[0].Average)
	assert.Equal(t, 100*time.Millisecond, steps[0].Min)
	assert.Equal(t, 300*time.Millisecond, steps[0].Max)

	assert.Equal(t, "fetch history", steps[1].StepName)
}

func TestPerformanceTrackerStartStep(t *testing.T) {
	pt := NewPerformanceTracker()
	clock := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	pt.now = func() time.Time { return clock }

	stop := pt.StartStep("fetch record")
	clock = clock.Add(250 * time.Millisecond)
	stop()

	steps := pt.Aggregates()
	require.Len(t, steps, 1)
	assert.Equal(t, 250*time.Millisecond, steps[0].Total)
}

func TestPerformanceTrackerConcurrentUse(t *testing.T) {
	pt := NewPerformanceTracker()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				pt.Record("fetch record", time.Millisecond)
			}
		}()
	}
	wg.Wait()

	steps := pt.Aggregates()
	require.Len(t, steps, 1)
	assert.Equal(t, 800, steps[0].Count)
}

func TestGenerateAggregateReport(t *testing.T) {
	pt := NewPerformanceTracker()
	pt.Record("fetch history", 1500*time.Millisecond)

	report := pt.GenerateAggregateReport()
	assert.Contains(t, report, "=== Aggregate Performance Report ===")
	assert.Contains(t, report, "Step: fetch history")
	assert.Contains(t, report, "Count:   1")
	assert.Contains(t, report, "Total:   1.5s")
}

func TestNilTrackerIsNoop(t *testing.T) {
	var pt *PerformanceTracker
	pt.StartStep("ignored")()
	pt.Record("ignored", time.Second)
}
