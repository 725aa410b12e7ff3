package metrics

import (
	"errors"
	"sync"
	"testing"
)

func TestCountersConcurrent(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.IncNotesCreated()
			m.IncExtractions()
			var err error
			if i%5 == 0 {
				err = errors.New("failed")
				m.IncProviderFailures()
			}
			m.RecordJobCompletion(err)
		}(i)
	}
	wg.Wait()
	m.UpdateQueue(3, 32, 2)
	m.IncStoreFailures()

	s := m.Snapshot()
	if s.NotesCreated != 50 || s.Extractions != 50 || s.ProcessedJobs != 50 {
		t.Fatalf("unexpected counters %+v", s)
	}
	if s.FailedJobs != 10 || s.ProviderFailures != 10 || s.StoreFailures != 1 {
		t.Fatalf("unexpected failure counters %+v", s)
	}
	if s.QueueLength != 3 || s.QueueCapacity != 32 || s.WorkerCount != 2 {
		t.Fatalf("unexpected queue gauges %+v", s)
	}
}
