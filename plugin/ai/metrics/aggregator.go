package metrics

import (
	"sort"
	"sync"
	"time"
)

// maxLatencySamples caps the message latencies kept for percentiles.
const maxLatencySamples = 1000

// Aggregator aggregates metrics in memory.
type Aggregator struct {
	mu sync.RWMutex

	modules   map[string]*bucket
	models    map[string]*bucket
	latencies []int64 // milliseconds, most recent messages only
}

type bucket struct {
	count        int64
	successCount int64
	latencySum   int64 // in milliseconds
}

func (b *bucket) record(latency time.Duration, success bool) {
	b.count++
	if success {
		b.successCount++
	}
	b.latencySum += latency.Milliseconds()
}

func (b *bucket) stat() *Stat {
	stat := &Stat{Count: b.count}
	if b.count > 0 {
		stat.SuccessRate = float32(b.successCount) / float32(b.count)
		stat.AvgLatency = time.Duration(b.latencySum/b.count) * time.Millisecond
	}
	return stat
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		modules:   make(map[string]*bucket),
		models:    make(map[string]*bucket),
		latencies: make([]int64, 0, 100),
	}
}

// RecordMessage records a single processed message.
func (a *Aggregator) RecordMessage(module string, latency time.Duration, success bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	getBucket(a.modules, module).record(latency, success)
	if len(a.latencies) >= maxLatencySamples {
		a.latencies = a.latencies[1:]
	}
	a.latencies = append(a.latencies, latency.Milliseconds())
}

// RecordModelAttempt records a single model invocation.
func (a *Aggregator) RecordModelAttempt(provider, model string, latency time.Duration, success bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	getBucket(a.models, provider+"/"+model).record(latency, success)
}

// GetCurrentStats returns aggregated stats since start.
func (a *Aggregator) GetCurrentStats() *Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := &Stats{
		ModuleStats: make(map[string]*Stat, len(a.modules)),
		ModelStats:  make(map[string]*Stat, len(a.models)),
	}
	for module, b := range a.modules {
		stats.MessageCount += b.count
		stats.SuccessCount += b.successCount
		stats.ModuleStats[module] = b.stat()
	}
	for model, b := range a.models {
		stats.ModelStats[model] = b.stat()
	}

	stats.LatencyP50 = time.Duration(percentile(a.latencies, 50)) * time.Millisecond
	stats.LatencyP95 = time.Duration(percentile(a.latencies, 95)) * time.Millisecond
	return stats
}

// Helper functions

func getBucket(buckets map[string]*bucket, key string) *bucket {
	b, ok := buckets[key]
	if !ok {
		b = &bucket{}
		buckets[key] = b
	}
	return b
}

func percentile(latencies []int64, p int) int64 {
	if len(latencies) == 0 {
		return 0
	}

	sorted := make([]int64, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := (len(sorted) - 1) * p / 100
	return sorted[idx]
}
