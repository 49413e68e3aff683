package sqlqueue

import (
	"sync"
	"time"
)

// Profiler is an option that can be passed to New
//
// it is called after every executed batch (successful or not) with the elapsed time and the batch statements
type Profiler func(elapsed time.Duration, statements []string)

// Metrics accumulates the elapsed time and count of executed batches
//
// each Driver has its own Metrics unless a *Metrics is passed as an option to New - the same
// *Metrics may be shared by several drivers (it is safe for concurrent use)
type Metrics struct {
	mutex   sync.RWMutex
	elapsed time.Duration
	batches int
}

// NewMetrics creates a new (empty) Metrics
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) record(elapsed time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.elapsed += elapsed
	m.batches++
}

// Elapsed returns the total time spent executing batches
func (m *Metrics) Elapsed() time.Duration {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.elapsed
}

// Batches returns the number of executed batches
func (m *Metrics) Batches() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.batches
}
