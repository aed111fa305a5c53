package tasks

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ckx/internal/models"
	"github.com/desertthunder/ckx/internal/shared"
	th "github.com/desertthunder/ckx/internal/testing"
)

// fakeCache records cache calls for assertions.
type fakeCache struct {
	mu      sync.Mutex
	records []string
	deletes []string
	clears  int
}

func (c *fakeCache) Record(sessionID string, checkDate time.Time, total, valid int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, sessionID)
	return nil
}

func (c *fakeCache) Delete(sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes = append(c.deletes, sessionID)
	return nil
}

func (c *fakeCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clears++
	return nil
}

func singleResultSet(sessionID string) *models.ResultSet {
	return &models.ResultSet{
		SessionID: sessionID,
		Total:     1,
		Valid:     1,
		Invalid:   0,
		Items:     []models.CheckOutcome{{Valid: true, Cookie: "tok"}},
	}
}

func TestCheckEngineCheck(t *testing.T) {
	policy := InputPolicy{MinCookieLength: 5, MaxBatchSize: 100}

	t.Run("SubmitsAndAppliesState", func(t *testing.T) {
		checker := &th.MockChecker{
			CheckFunc: func(ctx context.Context, cookies []string) (*models.ResultSet, error) {
				if len(cookies) != 1 {
					t.Errorf("cookies = %d, want 1", len(cookies))
				}
				return singleResultSet("sess-1"), nil
			},
		}
		cache := &fakeCache{}
		engine := NewCheckEngine(checker, cache, policy, 0)

		rs, err := engine.Check(context.Background(), []string{"longtoken"}, nil)
		if err != nil {
			t.Fatalf("check failed: %v", err)
		}
		if rs.SessionID != "sess-1" {
			t.Errorf("session = %q", rs.SessionID)
		}

		sessionID, current := engine.Current()
		if sessionID != "sess-1" || current == nil {
			t.Errorf("state not applied: %q %v", sessionID, current)
		}
		if len(cache.records) != 1 || cache.records[0] != "sess-1" {
			t.Errorf("cache records = %v", cache.records)
		}
		if engine.Checking() {
			t.Error("single-flight slot not released")
		}
	})

	t.Run("ValidationFailsBeforeNetwork", func(t *testing.T) {
		checker := &th.MockChecker{}
		engine := NewCheckEngine(checker, nil, policy, 0)

		_, err := engine.Check(context.Background(), []string{"tiny"}, nil)
		if !errors.Is(err, shared.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
		if calls := checker.CheckCalls.Load(); calls != 0 {
			t.Errorf("service called %d times before validation", calls)
		}
	})

	t.Run("SecondCheckRejectedWhileInFlight", func(t *testing.T) {
		release := make(chan struct{})
		entered := make(chan struct{})
		var enteredOnce sync.Once

		checker := &th.MockChecker{
			CheckFunc: func(ctx context.Context, cookies []string) (*models.ResultSet, error) {
				enteredOnce.Do(func() { close(entered) })
				<-release
				return singleResultSet("sess-1"), nil
			},
		}
		engine := NewCheckEngine(checker, nil, policy, 0)

		firstDone := make(chan error, 1)
		go func() {
			_, err := engine.Check(context.Background(), []string{"longtoken"}, nil)
			firstDone <- err
		}()

		<-entered

		_, err := engine.Check(context.Background(), []string{"longtoken"}, nil)
		if !errors.Is(err, shared.ErrCheckInFlight) {
			t.Errorf("expected ErrCheckInFlight, got %v", err)
		}

		close(release)
		if err := <-firstDone; err != nil {
			t.Fatalf("first check failed: %v", err)
		}

		if calls := checker.CheckCalls.Load(); calls != 1 {
			t.Errorf("service calls = %d, want 1", calls)
		}

		// slot freed again after completion
		if _, err := engine.Check(context.Background(), []string{"longtoken"}, nil); err != nil {
			t.Errorf("third check after release failed: %v", err)
		}
	})

	t.Run("SlotReleasedAfterFailure", func(t *testing.T) {
		checker := &th.MockChecker{
			CheckFunc: func(ctx context.Context, cookies []string) (*models.ResultSet, error) {
				return nil, fmt.Errorf("%w: boom", shared.ErrTransport)
			},
		}
		engine := NewCheckEngine(checker, nil, policy, 0)

		if _, err := engine.Check(context.Background(), []string{"longtoken"}, nil); err == nil {
			t.Fatal("expected failure")
		}
		if engine.Checking() {
			t.Error("single-flight slot leaked after failure")
		}
	})

	t.Run("StalledRequestTimesOut", func(t *testing.T) {
		checker := &th.MockChecker{
			CheckFunc: func(ctx context.Context, cookies []string) (*models.ResultSet, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		}
		engine := NewCheckEngine(checker, nil, policy, 20*time.Millisecond)

		_, err := engine.Check(context.Background(), []string{"longtoken"}, nil)
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("EmitsProgressWithoutBlocking", func(t *testing.T) {
		checker := &th.MockChecker{
			CheckFunc: func(ctx context.Context, cookies []string) (*models.ResultSet, error) {
				return singleResultSet("sess-1"), nil
			},
		}
		engine := NewCheckEngine(checker, nil, policy, 0)

		// unbuffered channel with no reader; sends must be dropped, not block
		progress := make(chan ProgressUpdate)
		if _, err := engine.Check(context.Background(), []string{"longtoken"}, progress); err != nil {
			t.Fatalf("check failed: %v", err)
		}
	})
}

func TestCheckEngineLoadSession(t *testing.T) {
	policy := DefaultInputPolicy()

	t.Run("AppliesFetchedState", func(t *testing.T) {
		checker := &th.MockChecker{
			SessionFunc: func(ctx context.Context, sessionID string) (*models.ResultSet, error) {
				return singleResultSet(sessionID), nil
			},
		}
		engine := NewCheckEngine(checker, nil, policy, 0)

		if _, err := engine.LoadSession(context.Background(), "sess-9", nil); err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if sessionID, _ := engine.Current(); sessionID != "sess-9" {
			t.Errorf("current session = %q, want sess-9", sessionID)
		}
	})

	t.Run("RepeatedLoadIsStable", func(t *testing.T) {
		checker := &th.MockChecker{
			SessionFunc: func(ctx context.Context, sessionID string) (*models.ResultSet, error) {
				return singleResultSet(sessionID), nil
			},
		}
		engine := NewCheckEngine(checker, nil, policy, 0)

		first, err := engine.LoadSession(context.Background(), "sess-9", nil)
		if err != nil {
			t.Fatalf("first load failed: %v", err)
		}
		second, err := engine.LoadSession(context.Background(), "sess-9", nil)
		if err != nil {
			t.Fatalf("second load failed: %v", err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("repeated load of an unchanged session differs:\nfirst:  %+v\nsecond: %+v", first, second)
		}
	})

	t.Run("UnknownSessionPreservesState", func(t *testing.T) {
		checker := &th.MockChecker{
			SessionFunc: func(ctx context.Context, sessionID string) (*models.ResultSet, error) {
				if sessionID == "known" {
					return singleResultSet(sessionID), nil
				}
				return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, sessionID)
			},
		}
		engine := NewCheckEngine(checker, nil, policy, 0)

		if _, err := engine.LoadSession(context.Background(), "known", nil); err != nil {
			t.Fatalf("load failed: %v", err)
		}

		_, err := engine.LoadSession(context.Background(), "missing", nil)
		if !errors.Is(err, shared.ErrSessionNotFound) {
			t.Fatalf("expected ErrSessionNotFound, got %v", err)
		}

		if sessionID, current := engine.Current(); sessionID != "known" || current == nil {
			t.Errorf("prior state lost: %q %v", sessionID, current)
		}
	})
}

func TestCheckEngineDelete(t *testing.T) {
	t.Run("RemovesBackendAndCacheRows", func(t *testing.T) {
		checker := &th.MockChecker{}
		cache := &fakeCache{}
		engine := NewCheckEngine(checker, cache, DefaultInputPolicy(), 0)

		if err := engine.Delete(context.Background(), "sess-1"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if len(cache.deletes) != 1 || cache.deletes[0] != "sess-1" {
			t.Errorf("cache deletes = %v", cache.deletes)
		}
	})

	t.Run("AlreadyDeletedIsSuccess", func(t *testing.T) {
		checker := &th.MockChecker{
			DeleteFunc: func(ctx context.Context, sessionID string) error {
				return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, sessionID)
			},
		}
		engine := NewCheckEngine(checker, nil, DefaultInputPolicy(), 0)

		if err := engine.Delete(context.Background(), "sess-1"); err != nil {
			t.Errorf("not-found delete should succeed, got %v", err)
		}
	})
}

func TestCheckEngineClearHistory(t *testing.T) {
	historyOf := func(n int) func(ctx context.Context) ([]models.HistoryRecord, error) {
		return func(ctx context.Context) ([]models.HistoryRecord, error) {
			records := make([]models.HistoryRecord, n)
			for i := range records {
				records[i] = models.HistoryRecord{SessionID: fmt.Sprintf("sess-%d", i)}
			}
			return records, nil
		}
	}

	t.Run("AttemptsEveryDelete", func(t *testing.T) {
		checker := &th.MockChecker{HistoryFunc: historyOf(7)}
		cache := &fakeCache{}
		engine := NewCheckEngine(checker, cache, DefaultInputPolicy(), 0)

		result, err := engine.ClearHistory(context.Background(), nil, ClearOpts{RateLimit: 1000})
		if err != nil {
			t.Fatalf("clear failed: %v", err)
		}
		if result.Attempted != 7 || result.Deleted != 7 || !result.Success() {
			t.Errorf("result = %+v", result)
		}
		if calls := checker.DeleteCalls.Load(); calls != 7 {
			t.Errorf("delete calls = %d, want 7", calls)
		}
		if cache.clears != 1 {
			t.Errorf("cache clears = %d, want 1", cache.clears)
		}
	})

	t.Run("CollectsPartialFailures", func(t *testing.T) {
		checker := &th.MockChecker{
			HistoryFunc: historyOf(4),
			DeleteFunc: func(ctx context.Context, sessionID string) error {
				if sessionID == "sess-2" {
					return fmt.Errorf("%w: boom", shared.ErrTransport)
				}
				return nil
			},
		}
		cache := &fakeCache{}
		engine := NewCheckEngine(checker, cache, DefaultInputPolicy(), 0)

		result, err := engine.ClearHistory(context.Background(), nil, ClearOpts{RateLimit: 1000})
		if err != nil {
			t.Fatalf("clear failed: %v", err)
		}
		if result.Attempted != 4 || result.Deleted != 3 || len(result.Failures) != 1 {
			t.Errorf("result = %+v", result)
		}
		if result.Failures[0].SessionID != "sess-2" {
			t.Errorf("failure = %+v", result.Failures[0])
		}
		if result.Success() {
			t.Error("partial failure reported as success")
		}
		if cache.clears != 0 {
			t.Error("cache cleared despite failed deletes")
		}
		if calls := checker.DeleteCalls.Load(); calls != 4 {
			t.Errorf("delete calls = %d, want 4 (all attempted)", calls)
		}
	})

	t.Run("NotFoundCountsAsDeleted", func(t *testing.T) {
		checker := &th.MockChecker{
			HistoryFunc: historyOf(2),
			DeleteFunc: func(ctx context.Context, sessionID string) error {
				return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, sessionID)
			},
		}
		engine := NewCheckEngine(checker, nil, DefaultInputPolicy(), 0)

		result, err := engine.ClearHistory(context.Background(), nil, ClearOpts{RateLimit: 1000})
		if err != nil {
			t.Fatalf("clear failed: %v", err)
		}
		if result.Deleted != 2 || !result.Success() {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("CanceledClearIsNotSuccess", func(t *testing.T) {
		checker := &th.MockChecker{HistoryFunc: historyOf(3)}
		cache := &fakeCache{}
		engine := NewCheckEngine(checker, cache, DefaultInputPolicy(), 0)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := engine.ClearHistory(ctx, nil, ClearOpts{RateLimit: 1000})
		if err != nil {
			t.Fatalf("clear failed: %v", err)
		}
		if result.Attempted != 3 || result.Deleted != 0 {
			t.Errorf("result = %+v", result)
		}
		if result.Success() {
			t.Error("canceled clear reported as success")
		}
		if calls := checker.DeleteCalls.Load(); calls != 0 {
			t.Errorf("delete calls = %d, want 0", calls)
		}
		if cache.clears != 0 {
			t.Error("cache cleared despite canceled clear")
		}
	})

	t.Run("EmptyHistoryIsNoop", func(t *testing.T) {
		checker := &th.MockChecker{}
		engine := NewCheckEngine(checker, nil, DefaultInputPolicy(), 0)

		result, err := engine.ClearHistory(context.Background(), nil, ClearOpts{})
		if err != nil {
			t.Fatalf("clear failed: %v", err)
		}
		if result.Attempted != 0 || result.Deleted != 0 {
			t.Errorf("result = %+v", result)
		}
		if calls := checker.DeleteCalls.Load(); calls != 0 {
			t.Errorf("delete calls = %d, want 0", calls)
		}
	})
}
