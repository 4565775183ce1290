package pipeline

import (
	"time"
)

// Stage names used in logs, progress events, and the run ledger.
const (
	StageConfigs = "configs"
	StageImports = "imports"
	StageAssets  = "assets"
)

// BundleResult tallies one bundle within a stage.
type BundleResult struct {
	Bundle     string
	Version    string
	Downloaded int
	Present    int
	Unresolved int
	Bytes      int64
	Skeletons  int
	Clips      int
	Skipped    bool
	Err        error
}

// Resolved counts items that exist locally after the stage.
func (b BundleResult) Resolved() int {
	return b.Downloaded + b.Present
}

// Summary is the outcome of one stage across all target bundles.
type Summary struct {
	RunID    string
	Stage    string
	Started  time.Time
	Finished time.Time
	Bundles  []BundleResult
}

// Totals aggregates the bundle rows.
type Totals struct {
	Downloaded     int
	Present        int
	Unresolved     int
	SkippedBundles int
	Bytes          int64
	Skeletons      int
	Clips          int
}

// Resolved counts items that exist locally after the stage.
func (t Totals) Resolved() int {
	return t.Downloaded + t.Present
}

// Totals sums every bundle row.
func (s Summary) Totals() Totals {
	var t Totals
	for _, b := range s.Bundles {
		t.Downloaded += b.Downloaded
		t.Present += b.Present
		t.Unresolved += b.Unresolved
		t.Bytes += b.Bytes
		t.Skeletons += b.Skeletons
		t.Clips += b.Clips
		if b.Skipped {
			t.SkippedBundles++
		}
	}
	return t
}

// Duration reports the wall time of the stage.
func (s Summary) Duration() time.Duration {
	if s.Finished.Before(s.Started) {
		return 0
	}
	return s.Finished.Sub(s.Started)
}

// Progress is emitted after every finished task.
type Progress struct {
	Stage  string
	Bundle string
	Done   int
	Total  int
}

// ProgressFunc receives progress events. Calls are serialized.
type ProgressFunc func(Progress)
