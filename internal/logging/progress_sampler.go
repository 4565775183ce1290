package logging

import (
	"strings"
	"sync"
)

// ProgressSampler throttles per-item progress logs to one line per percentage
// bucket or stage change. It is safe for concurrent use by workers.
type ProgressSampler struct {
	mu         sync.Mutex
	bucketSize float64
	lastStage  string
	lastBucket int
}

// NewProgressSampler constructs a sampler emitting when progress crosses a
// bucket boundary (default 10%) or the stage changes.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether done-of-total in stage is worth a log line. A
// non-positive total means progress is unknown and only stage changes emit.
func (s *ProgressSampler) ShouldLog(done, total int, stage string) bool {
	if s == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stage = strings.TrimSpace(stage)
	emit := false
	if stage != "" && stage != s.lastStage {
		s.lastStage = stage
		s.lastBucket = -1
		emit = true
	}
	if total > 0 {
		percent := float64(done) * 100 / float64(total)
		if percent > 100 {
			percent = 100
		}
		bucket := int(percent / s.bucketSize)
		if bucket > s.lastBucket {
			s.lastBucket = bucket
			emit = true
		}
	}
	return emit
}

// Reset clears the sampler state before a new run.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.lastStage = ""
	s.lastBucket = -1
	s.mu.Unlock()
}
