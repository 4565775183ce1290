package pipeline

import (
	"log/slog"
	"sync"

	"bundlepull/internal/logging"
)

// tracker is the only state tasks share. It counts finished tasks for
// reporting and never influences what gets fetched.
type tracker struct {
	mu      sync.Mutex
	stage   string
	bundle  string
	done    int
	total   int
	notify  ProgressFunc
	sampler *logging.ProgressSampler
	logger  *slog.Logger
}

func newTracker(stage, bundle string, total int, notify ProgressFunc, logger *slog.Logger) *tracker {
	return &tracker{
		stage:   stage,
		bundle:  bundle,
		total:   total,
		notify:  notify,
		sampler: logging.NewProgressSampler(25),
		logger:  logger,
	}
}

func (t *tracker) step() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done++
	if t.notify != nil {
		t.notify(Progress{Stage: t.stage, Bundle: t.bundle, Done: t.done, Total: t.total})
	}
	if t.logger != nil && t.sampler.ShouldLog(t.done, t.total, t.stage) {
		t.logger.Info("stage progress",
			logging.Int("done", t.done),
			logging.Int("total", t.total),
			logging.String(logging.FieldEventType, "stage_progress"),
		)
	}
}
