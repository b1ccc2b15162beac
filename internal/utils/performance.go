package utils

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// StepAggregate holds aggregate timing information for a step
type StepAggregate struct {
	StepName string
	Count    int
	Total    time.Duration
	Average  time.Duration
	Min      time.Duration
	Max      time.Duration
}

// PerformanceTracker aggregates execution times of named steps. It is safe
// for concurrent use by fetch workers.
type PerformanceTracker struct {
	mu         sync.Mutex
	aggregates map[string]*StepAggregate
	now        func() time.Time
}

func NewPerformanceTracker() *PerformanceTracker {
	return &PerformanceTracker{
		aggregates: make(map[string]*StepAggregate),
		now:        time.Now,
	}
}

// StartStep begins timing a step and returns the function that ends it.
func (pt *PerformanceTracker) StartStep(name string) func() {
	if pt == nil {
		return func() {}
	}
	start := pt.now()
	return func() {
		pt.Record(name, pt.now().Sub(start))
	}
}

// Record adds one observation of step name.
func (pt *PerformanceTracker) Record(name string, d time.Duration) {
	if pt == nil {
		return
	}
	pt.mu.Lock()
	defer pt.mu.Unlock()

	agg, exists := pt.aggregates[name]
	if !exists {
		agg = &StepAggregate{
			StepName: name,
			Min:      d,
			Max:      d,
		}
		pt.aggregates[name] = agg
	}

	agg.Count++
	agg.Total += d
	agg.Average = agg.Total / time.Duration(agg.Count)
	if d < agg.Min {
		agg.Min = d
	}
	if d > agg.Max {
		agg.Max = d
	}
}

// Aggregates returns a snapshot sorted by total time, longest first.
func (pt *PerformanceTracker) Aggregates() []StepAggregate {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	steps := make([]StepAggregate, 0, len(pt.aggregates))
	for _, agg := range pt.aggregates {
		steps = append(steps, *agg)
	}
	sort.Slice(steps, func(i, j int) bool {
		if steps[i].Total == steps[j].Total {
			return steps[i].StepName < steps[j].StepName
		}
		return steps[i].Total > steps[j].Total
	})
	return steps
}

// GenerateAggregateReport generates an aggregate performance report
func (pt *PerformanceTracker) GenerateAggregateReport() string {
	var sb strings.Builder
	sb.WriteString("\n=== Aggregate Performance Report ===\n")

	for _, agg := range pt.Aggregates() {
		sb.WriteString(fmt.Sprintf(
			"Step: %s\n"+
				"  Count:   %d\n"+
				"  Total:   %v\n"+
				"  Average: %v\n"+
				"  Min:     %v\n"+
				"  Max:     %v\n",
			agg.StepName,
			agg.Count,
			agg.Total.Round(time.Millisecond),
			agg.Average.Round(time.Millisecond),
			agg.Min.Round(time.Millisecond),
			agg.Max.Round(time.Millisecond),
		))
	}

	return sb.String()
}
