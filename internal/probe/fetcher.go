package probe

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"time"

	"bundlepull/internal/ccuuid"
	"bundlepull/internal/existence"
	"bundlepull/internal/fileutil"
	"bundlepull/internal/logging"
	"bundlepull/internal/services"
	"bundlepull/internal/transport"
)

const (
	defaultAttempts = 3
	defaultBackoff  = time.Second
)

// AttemptKind classifies a single request for one candidate.
type AttemptKind int

const (
	// Success means the file is on disk.
	Success AttemptKind = iota
	// Miss means the server does not have this extension.
	Miss
	// Retryable means the request failed in a way worth repeating.
	Retryable
)

// Attempt is the result of one request.
type Attempt struct {
	Kind  AttemptKind
	Path  string
	Bytes int
	Err   error
}

// Status summarises how an asset ended up.
type Status int

const (
	Unresolved Status = iota
	Downloaded
	AlreadyPresent
)

func (s Status) String() string {
	switch s {
	case Downloaded:
		return "downloaded"
	case AlreadyPresent:
		return "present"
	default:
		return "unresolved"
	}
}

// Outcome is the result of probing every candidate for one asset.
type Outcome struct {
	Status    Status
	Path      string
	Extension string
	Bytes     int64
	Requests  int
	Err       error
}

// Resolved reports whether the asset exists locally after the probe.
func (o Outcome) Resolved() bool { return o.Status != Unresolved }

// Options tunes a Fetcher.
type Options struct {
	// Attempts is the number of requests per candidate before advancing.
	Attempts int
	// Backoff is the fixed delay between attempts of the same candidate.
	Backoff time.Duration
	// Overwrite disables the already-present shortcut.
	Overwrite bool
	// Index lists files already under the destination directory. Paths are
	// relative to the directory passed to FetchFirstSuccess.
	Index  *existence.Index
	Logger *slog.Logger
}

// Fetcher downloads native assets. It holds no mutable state and is safe for
// concurrent use.
type Fetcher struct {
	getter    transport.Getter
	attempts  int
	backoff   time.Duration
	overwrite bool
	index     *existence.Index
	logger    *slog.Logger
}

// NewFetcher builds a Fetcher around getter.
func NewFetcher(getter transport.Getter, opts Options) *Fetcher {
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	backoff := opts.Backoff
	if backoff < 0 {
		backoff = defaultBackoff
	}
	return &Fetcher{
		getter:    getter,
		attempts:  attempts,
		backoff:   backoff,
		overwrite: opts.Overwrite,
		index:     opts.Index,
		logger:    logging.NewComponentLogger(opts.Logger, "probe"),
	}
}

// NativeBase returns the extension-less remote path of a native asset,
// relative to the deployment root.
func NativeBase(bundle, canonical, nativeHash string) string {
	return path.Join("assets", bundle, "native", ccuuid.Prefix(canonical), canonical+"."+nativeHash)
}

// FetchFirstSuccess tries candidates in order, fetching baseURL+ext and
// saving the body to destDir/name+ext. If any candidate is already on disk
// the asset counts as present and no request is made.
func (f *Fetcher) FetchFirstSuccess(ctx context.Context, baseURL string, candidates []string, destDir, name string) Outcome {
	if out, ok := f.Present(candidates, destDir, name); ok {
		return out
	}

	logger := logging.WithContext(ctx, f.logger)
	out := Outcome{Status: Unresolved}
	for _, ext := range candidates {
		dest := filepath.Join(destDir, filepath.FromSlash(name+ext))
		url := baseURL + ext
	retries:
		for attempt := 1; attempt <= f.attempts; attempt++ {
			if err := ctx.Err(); err != nil {
				out.Err = err
				return out
			}
			result := f.try(ctx, url, dest)
			out.Requests++
			switch result.Kind {
			case Success:
				out.Status = Downloaded
				out.Path = result.Path
				out.Extension = ext
				out.Bytes = int64(result.Bytes)
				out.Err = nil
				return out
			case Miss:
				break retries
			case Retryable:
				out.Err = result.Err
				logger.Debug("native fetch attempt failed",
					logging.String(logging.FieldURL, url),
					logging.Int("attempt", attempt),
					logging.Error(result.Err),
				)
				if attempt < f.attempts {
					if err := sleep(ctx, f.backoff); err != nil {
						out.Err = err
						return out
					}
				}
			}
		}
	}
	return out
}

// Present reports whether name is already stored under destDir with any of
// the candidate extensions. It always reports false when overwriting.
func (f *Fetcher) Present(candidates []string, destDir, name string) (Outcome, bool) {
	if f.overwrite {
		return Outcome{}, false
	}
	for _, ext := range candidates {
		rel := name + ext
		dest := filepath.Join(destDir, filepath.FromSlash(rel))
		if f.index.HasPath(rel) || fileutil.NonEmptyFile(dest) {
			return Outcome{Status: AlreadyPresent, Path: dest, Extension: ext}, true
		}
	}
	return Outcome{}, false
}

func (f *Fetcher) try(ctx context.Context, url, dest string) Attempt {
	resp, err := f.getter.Get(ctx, url)
	if err != nil {
		return Attempt{Kind: Retryable, Err: services.Wrap(services.ErrTransient, "assets", "fetch", url, err)}
	}
	switch {
	case resp.OK():
		if err := fileutil.WriteFileAtomic(dest, resp.Body, 0o644); err != nil {
			return Attempt{Kind: Retryable, Err: fmt.Errorf("save %s: %w", dest, err)}
		}
		return Attempt{Kind: Success, Path: dest, Bytes: len(resp.Body)}
	case resp.NotFound():
		return Attempt{Kind: Miss}
	default:
		return Attempt{Kind: Retryable, Err: services.Wrap(services.ErrTransient, "assets", "fetch", fmt.Sprintf("%s: status %d", url, resp.StatusCode), nil)}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
