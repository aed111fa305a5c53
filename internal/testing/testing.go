// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/ckx/internal/models"
)

// MockChecker is a test double for [services.Service].
//
// Per-operation function fields override the zero-value behavior; call
// counters are atomic so concurrent workflows can assert exact call counts.
type MockChecker struct {
	CheckFunc       func(ctx context.Context, cookies []string) (*models.ResultSet, error)
	HistoryFunc     func(ctx context.Context) ([]models.HistoryRecord, error)
	SessionFunc     func(ctx context.Context, sessionID string) (*models.ResultSet, error)
	DeleteFunc      func(ctx context.Context, sessionID string) error
	DownloadFunc    func(ctx context.Context, sessionID string, w io.Writer) (int64, error)
	GlobalStatsFunc func(ctx context.Context) (*models.GlobalStats, error)
	LegacyStatsFunc func(ctx context.Context) (*models.LegacyStats, error)
	HealthFunc      func(ctx context.Context) error

	CheckCalls    atomic.Int64
	HistoryCalls  atomic.Int64
	SessionCalls  atomic.Int64
	DeleteCalls   atomic.Int64
	DownloadCalls atomic.Int64
}

func (m *MockChecker) Check(ctx context.Context, cookies []string) (*models.ResultSet, error) {
	m.CheckCalls.Add(1)
	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, cookies)
	}
	return &models.ResultSet{}, nil
}

func (m *MockChecker) History(ctx context.Context) ([]models.HistoryRecord, error) {
	m.HistoryCalls.Add(1)
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx)
	}
	return []models.HistoryRecord{}, nil
}

func (m *MockChecker) Session(ctx context.Context, sessionID string) (*models.ResultSet, error) {
	m.SessionCalls.Add(1)
	if m.SessionFunc != nil {
		return m.SessionFunc(ctx, sessionID)
	}
	return &models.ResultSet{SessionID: sessionID}, nil
}

func (m *MockChecker) Delete(ctx context.Context, sessionID string) error {
	m.DeleteCalls.Add(1)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockChecker) DownloadArchiveURL(sessionID string) string {
	return "http://localhost:5000/api/download/" + sessionID
}

func (m *MockChecker) DownloadArchive(ctx context.Context, sessionID string, w io.Writer) (int64, error) {
	m.DownloadCalls.Add(1)
	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx, sessionID, w)
	}
	return 0, nil
}

func (m *MockChecker) GlobalStats(ctx context.Context) (*models.GlobalStats, error) {
	if m.GlobalStatsFunc != nil {
		return m.GlobalStatsFunc(ctx)
	}
	return &models.GlobalStats{}, nil
}

func (m *MockChecker) LegacyStats(ctx context.Context) (*models.LegacyStats, error) {
	if m.LegacyStatsFunc != nil {
		return m.LegacyStatsFunc(ctx)
	}
	return &models.LegacyStats{}, nil
}

func (m *MockChecker) Health(ctx context.Context) error {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

func (m *MockChecker) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
