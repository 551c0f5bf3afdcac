package metrics

import (
	"sync"
	"time"
)

// MemoryMetrics implements RunMetrics with in-memory counters.
// It is safe for concurrent use, so one instance can be shared
// by runs graded in parallel.
type MemoryMetrics struct {
	mu            sync.Mutex
	runs          map[string]int
	steps         map[string]int
	channelErrors map[string]int
	durations     map[string][]time.Duration
	runTotal      int
	active        int
}

// NewMemoryMetrics creates a new MemoryMetrics instance.
func NewMemoryMetrics() *MemoryMetrics {
	return &MemoryMetrics{
		runs:          make(map[string]int),
		steps:         make(map[string]int),
		channelErrors: make(map[string]int),
		durations:     make(map[string][]time.Duration),
	}
}

func (m *MemoryMetrics) RecordRun(challengeID, status string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[challengeID+":"+status]++
	m.durations[challengeID] = append(m.durations[challengeID], duration)
	m.runTotal++
}

func (m *MemoryMetrics) RecordStep(kind, status string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps[kind+":"+status]++
}

func (m *MemoryMetrics) RecordChannelError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channelErrors[kind]++
}

func (m *MemoryMetrics) SetActiveRuns(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = count
}

// RunCount returns the count for a challenge+status combination.
func (m *MemoryMetrics) RunCount(challengeID, status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs[challengeID+":"+status]
}

// StepCount returns the count for a kind+status combination.
func (m *MemoryMetrics) StepCount(kind, status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.steps[kind+":"+status]
}

// ChannelErrors returns how many channel failures of kind were
// recorded.
func (m *MemoryMetrics) ChannelErrors(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.channelErrors[kind]
}

// Durations returns the recorded run durations of a challenge.
func (m *MemoryMetrics) Durations(challengeID string) []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.durations[challengeID]))
	copy(out, m.durations[challengeID])
	return out
}

// RunTotal returns the total number of runs.
func (m *MemoryMetrics) RunTotal() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runTotal
}

// ActiveRuns returns the current active runs gauge.
func (m *MemoryMetrics) ActiveRuns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}
