// Package metrics keeps in-process counters for the notes service.
package metrics

import "sync/atomic"

// Metrics captures shared operational stats for the service, the queue and
// its workers.
type Metrics struct {
	queueLength   int64
	queueCapacity int64
	workerCount   int64

	processedJobs int64
	failedJobs    int64

	notesCreated     int64
	extractions      int64
	providerFailures int64
	storeFailures    int64
}

// Snapshot provides a consistent view of the current metrics.
type Snapshot struct {
	QueueLength      int   `json:"queue_length"`
	QueueCapacity    int   `json:"queue_capacity"`
	WorkerCount      int   `json:"worker_count"`
	ProcessedJobs    int64 `json:"processed_jobs"`
	FailedJobs       int64 `json:"failed_jobs"`
	NotesCreated     int64 `json:"notes_created"`
	Extractions      int64 `json:"extractions"`
	ProviderFailures int64 `json:"provider_failures"`
	StoreFailures    int64 `json:"store_failures"`
}

// New creates a zeroed Metrics instance.
func New() *Metrics {
	return &Metrics{}
}

// UpdateQueue records the current queue stats.
func (m *Metrics) UpdateQueue(length, capacity, workers int) {
	atomic.StoreInt64(&m.queueLength, int64(length))
	atomic.StoreInt64(&m.queueCapacity, int64(capacity))
	atomic.StoreInt64(&m.workerCount, int64(workers))
}

// RecordJobCompletion increments processed/failed counters based on outcome.
func (m *Metrics) RecordJobCompletion(err error) {
	atomic.AddInt64(&m.processedJobs, 1)
	if err != nil {
		atomic.AddInt64(&m.failedJobs, 1)
	}
}

func (m *Metrics) IncNotesCreated()     { atomic.AddInt64(&m.notesCreated, 1) }
func (m *Metrics) IncExtractions()      { atomic.AddInt64(&m.extractions, 1) }
func (m *Metrics) IncProviderFailures() { atomic.AddInt64(&m.providerFailures, 1) }
func (m *Metrics) IncStoreFailures()    { atomic.AddInt64(&m.storeFailures, 1) }

// Snapshot returns a read-only view of metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		QueueLength:      int(atomic.LoadInt64(&m.queueLength)),
		QueueCapacity:    int(atomic.LoadInt64(&m.queueCapacity)),
		WorkerCount:      int(atomic.LoadInt64(&m.workerCount)),
		ProcessedJobs:    atomic.LoadInt64(&m.processedJobs),
		FailedJobs:       atomic.LoadInt64(&m.failedJobs),
		NotesCreated:     atomic.LoadInt64(&m.notesCreated),
		Extractions:      atomic.LoadInt64(&m.extractions),
		ProviderFailures: atomic.LoadInt64(&m.providerFailures),
		StoreFailures:    atomic.LoadInt64(&m.storeFailures),
	}
}
