package scanfeed

import (
	"sync/atomic"
	"time"
)

type Stats struct {
	totalHandled    int64
	totalDiscarded  int64
	totalDurationNs int64
	startedNs       int64
}

func NewStats() *Stats {
	return &Stats{
		startedNs: time.Now().UnixNano(),
	}
}

func (s *Stats) RecordHandled(duration time.Duration) {
	atomic.AddInt64(&s.totalHandled, 1)
	atomic.AddInt64(&s.totalDurationNs, int64(duration))
}

func (s *Stats) RecordDiscarded() {
	atomic.AddInt64(&s.totalDiscarded, 1)
}

func (s *Stats) Snapshot() map[string]interface{} {
	handled := atomic.LoadInt64(&s.totalHandled)
	discarded := atomic.LoadInt64(&s.totalDiscarded)
	durationNs := atomic.LoadInt64(&s.totalDurationNs)
	startedNs := atomic.LoadInt64(&s.startedNs)

	elapsed := time.Since(time.Unix(0, startedNs)).Seconds()

	rate := 0.0
	if elapsed > 0 {
		rate = float64(handled) / elapsed
	}

	avgDuration := time.Duration(0)
	if handled > 0 {
		avgDuration = time.Duration(durationNs / handled)
	}

	return map[string]interface{}{
		"total_handled":   handled,
		"total_discarded": discarded,
		"rate_per_second": rate,
		"avg_duration_ms": avgDuration.Milliseconds(),
		"uptime_seconds":  elapsed,
	}
}
