// package tasks implements the check workflows against the remote backend.
//
// The core abstraction is CheckEngine, which owns the client-side application
// state for a checking session: the current result set, its session id, and
// the single-flight guard that rejects a second batch submission while one is
// outstanding. Operations emit progress updates via channels for non-blocking
// status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/desertthunder/ckx/internal/models"
	"github.com/desertthunder/ckx/internal/services"
	"github.com/desertthunder/ckx/internal/shared"
	"golang.org/x/time/rate"
)

// HistoryCache persists local, non-authoritative summaries of past checks.
// Implemented by repositories.CheckRepository; nil disables caching.
type HistoryCache interface {
	Record(sessionID string, checkDate time.Time, total, valid int) error
	Delete(sessionID string) error
	Clear() error
}

// ClearOpts contains configuration for bulk history clears.
type ClearOpts struct {
	NumWorkers int     // Concurrent workers (default: 5)
	RateLimit  float64 // Requests per second (default: 5)
}

// DeleteFailure records one failed delete during a bulk clear.
type DeleteFailure struct {
	SessionID string
	Err       error
}

// ClearResult is the aggregate outcome of a bulk history clear.
// Success requires every attempted delete to have succeeded.
type ClearResult struct {
	Attempted int
	Deleted   int
	Failures  []DeleteFailure
}

// Success reports whether every listed record was deleted. A canceled
// clear leaves records neither deleted nor failed, so the deleted count
// is checked against the attempted count rather than the failure list.
func (r *ClearResult) Success() bool {
	return len(r.Failures) == 0 && r.Deleted == r.Attempted
}

// CheckEngine orchestrates check submissions and history operations.
//
// All mutable state lives here rather than in package-level variables; the
// single-flight flag is guarded with check-and-set semantics and reset on
// every exit path.
type CheckEngine struct {
	checker services.Service
	cache   HistoryCache
	policy  InputPolicy
	timeout time.Duration

	mu        sync.Mutex
	checking  bool
	sessionID string
	current   *models.ResultSet
}

// NewCheckEngine creates a CheckEngine with the provided dependencies.
// A zero timeout disables the per-request deadline.
func NewCheckEngine(checker services.Service, cache HistoryCache, policy InputPolicy, timeout time.Duration) *CheckEngine {
	return &CheckEngine{
		checker: checker,
		cache:   cache,
		policy:  policy,
		timeout: timeout,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *CheckEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Checking reports whether a batch submission is in flight.
func (e *CheckEngine) Checking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.checking
}

// Current returns the session id and result set of the last applied check, if any.
func (e *CheckEngine) Current() (string, *models.ResultSet) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionID, e.current
}

// acquire claims the single-flight slot, failing if one is already held.
func (e *CheckEngine) acquire() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.checking {
		return shared.ErrCheckInFlight
	}
	e.checking = true
	return nil
}

// release frees the single-flight slot.
func (e *CheckEngine) release() {
	e.mu.Lock()
	e.checking = false
	e.mu.Unlock()
}

// apply stores a result set as the current displayed state.
func (e *CheckEngine) apply(rs *models.ResultSet) {
	e.mu.Lock()
	e.sessionID = rs.SessionID
	e.current = rs
	e.mu.Unlock()
}

// Check validates raw input lines, submits the batch, and applies the result.
//
// Validation failures surface as [shared.ErrValidation] before any network
// call. A second Check while one is outstanding fails with
// [shared.ErrCheckInFlight], also before any network call. A stalled request
// fails with [shared.ErrTimeout] once the configured deadline passes.
func (e *CheckEngine) Check(ctx context.Context, lines []string, progress chan<- ProgressUpdate) (*models.ResultSet, error) {
	if e.checker == nil {
		return nil, fmt.Errorf("%w: checker service not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, validateInputUpdate(len(lines)))

	cookies, err := PrepareBatch(lines, e.policy)
	if err != nil {
		return nil, err
	}

	if err := e.acquire(); err != nil {
		return nil, err
	}
	defer e.release()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	e.sendProgress(progress, submitBatchUpdate(len(cookies)))

	rs, err := e.checker.Check(ctx, cookies)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: check request exceeded %s", shared.ErrTimeout, e.timeout)
		}
		return nil, err
	}

	e.apply(rs)
	e.recordLocal(rs)

	return rs, nil
}

// recordLocal caches a check summary. Cache failures never fail the check.
func (e *CheckEngine) recordLocal(rs *models.ResultSet) {
	if e.cache == nil {
		return
	}
	_ = e.cache.Record(rs.SessionID, time.Now().UTC(), rs.Total, rs.Valid)
}

// LoadSession re-fetches a past result set and applies it as current state.
//
// On failure (including an unknown id) the previously applied state is kept.
func (e *CheckEngine) LoadSession(ctx context.Context, sessionID string, progress chan<- ProgressUpdate) (*models.ResultSet, error) {
	if e.checker == nil {
		return nil, fmt.Errorf("%w: checker service not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchSessionUpdate(sessionID))

	rs, err := e.checker.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	e.apply(rs)
	return rs, nil
}

// History lists past checks from the backend, in backend order.
func (e *CheckEngine) History(ctx context.Context, progress chan<- ProgressUpdate) ([]models.HistoryRecord, error) {
	if e.checker == nil {
		return nil, fmt.Errorf("%w: checker service not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchHistoryUpdate())
	return e.checker.History(ctx)
}

// Delete removes one past check from the backend and the local cache.
//
// An already-deleted id is an acceptable terminal state and reports success.
func (e *CheckEngine) Delete(ctx context.Context, sessionID string) error {
	if e.checker == nil {
		return fmt.Errorf("%w: checker service not initialized", shared.ErrServiceUnavailable)
	}

	err := e.checker.Delete(ctx, sessionID)
	if err != nil && !isNotFound(err) {
		return err
	}

	if e.cache != nil {
		_ = e.cache.Delete(sessionID)
	}
	return nil
}

// ClearHistory deletes every listed record concurrently with rate limiting,
// attempting all deletes regardless of individual failures, and reports the
// aggregate outcome. An already-deleted id counts as a successful delete.
func (e *CheckEngine) ClearHistory(ctx context.Context, progress chan<- ProgressUpdate, opts ClearOpts) (*ClearResult, error) {
	records, err := e.History(ctx, progress)
	if err != nil {
		return nil, err
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	result := &ClearResult{Attempted: len(records)}
	if len(records) == 0 {
		return result, nil
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan string, len(records))
	results := make(chan DeleteFailure, len(records))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.deleteWorker(ctx, &wg, limiter, jobs, results)
	}

	go func() {
		for i, rec := range records {
			select {
			case <-ctx.Done():
				close(jobs)
				return
			default:
			}

			e.sendProgress(progress, deleteSessionUpdate(i+1, len(records), rec.SessionID))
			jobs <- rec.SessionID
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		if res.Err != nil {
			result.Failures = append(result.Failures, res)
		} else {
			result.Deleted++
		}
	}

	if e.cache != nil && result.Success() {
		_ = e.cache.Clear()
	}

	return result, nil
}

// deleteWorker is a worker goroutine that deletes sessions from the jobs channel.
func (e *CheckEngine) deleteWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan string,
	results chan<- DeleteFailure,
) {
	defer wg.Done()

	for sessionID := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			results <- DeleteFailure{SessionID: sessionID, Err: err}
			continue
		}

		err := e.checker.Delete(ctx, sessionID)
		if err != nil && !isNotFound(err) {
			results <- DeleteFailure{SessionID: sessionID, Err: err}
			continue
		}

		results <- DeleteFailure{SessionID: sessionID}
	}
}

// Download streams a session's archive to path (default ckx_{session}.zip).
func (e *CheckEngine) Download(ctx context.Context, sessionID, path string, progress chan<- ProgressUpdate) (string, int64, error) {
	if e.checker == nil {
		return "", 0, fmt.Errorf("%w: checker service not initialized", shared.ErrServiceUnavailable)
	}
	if path == "" {
		path = fmt.Sprintf("ckx_%s.zip", sessionID)
	}

	e.sendProgress(progress, downloadArchiveUpdate(sessionID))

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create archive file: %w", err)
	}
	defer f.Close()

	n, err := e.checker.DownloadArchive(ctx, sessionID, f)
	if err != nil {
		os.Remove(path)
		return "", 0, err
	}

	return path, n, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrSessionNotFound)
}
