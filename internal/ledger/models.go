package ledger

import "time"

// BundleStatus summarizes how a bundle fared in a run.
type BundleStatus string

const (
	BundleCompleted BundleStatus = "completed"
	BundlePartial   BundleStatus = "partial"
	BundleSkipped   BundleStatus = "skipped"
)

// Run is one recorded invocation.
type Run struct {
	ID             string
	Command        string
	BaseURL        string
	StartedAt      time.Time
	FinishedAt     time.Time
	Resolved       int
	Unresolved     int
	SkippedBundles int
	Bytes          int64
	ErrorMessage   string
	Bundles        []BundleResult
}

// Duration reports how long the run took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// BundleResult is the per-bundle row of a run.
type BundleResult struct {
	Bundle       string
	Status       BundleStatus
	Resolved     int
	Unresolved   int
	Bytes        int64
	ErrorMessage string
}
