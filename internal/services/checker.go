// Checker API client for the cookie validation backend.
//
// Wire shapes follow the backend's HTTP/JSON contract: non-2xx responses
// either carry a structured {"error": ...} body (surfaced verbatim) or an
// opaque body (reported as a transport failure).
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/ckx/internal/models"
	"github.com/desertthunder/ckx/internal/shared"
	"golang.org/x/time/rate"
)

// Service defines operations against the cookie checker backend.
type Service interface {
	// Check submits a batch of cookies for validation and returns the reconciled result set.
	Check(ctx context.Context, cookies []string) (*models.ResultSet, error)

	// History lists past checks, most recent first, in backend order.
	History(ctx context.Context) ([]models.HistoryRecord, error)

	// Session re-fetches the full result set of a past check by session id.
	Session(ctx context.Context, sessionID string) (*models.ResultSet, error)

	// Delete removes a past check from the backend history.
	Delete(ctx context.Context, sessionID string) error

	// DownloadArchiveURL constructs the retrieval URL for a session's binary export.
	DownloadArchiveURL(sessionID string) string

	// DownloadArchive streams a session's binary export into w.
	DownloadArchive(ctx context.Context, sessionID string, w io.Writer) (int64, error)

	// GlobalStats fetches the canonical aggregate counters.
	GlobalStats(ctx context.Context) (*models.GlobalStats, error)

	// LegacyStats fetches the deprecated aggregate counter shape.
	LegacyStats(ctx context.Context) (*models.LegacyStats, error)

	// Health probes backend availability.
	Health(ctx context.Context) error

	Name() string
}

// CheckerService implements [Service] over HTTP.
type CheckerService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ Service = (*CheckerService)(nil)

// NewCheckerService creates a checker client for the given base URL.
//
// rps bounds client-side request pacing; zero or negative disables the limiter.
func NewCheckerService(baseURL string, client *http.Client, rps float64) *CheckerService {
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}
	if client == nil {
		client = http.DefaultClient
	}

	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	return &CheckerService{
		baseURL:    baseURL,
		httpClient: client,
		limiter:    limiter,
	}
}

func (s *CheckerService) Name() string { return "Checker" }

// checkPayload mirrors the POST /api/check and GET /api/session/{id} response.
// Count fields are pointers so a missing field is distinguishable from zero.
type checkPayload struct {
	SessionID string                 `json:"session_id"`
	Total     *int                   `json:"total"`
	Valid     *int                   `json:"valid"`
	Invalid   *int                   `json:"invalid"`
	Results   *[]models.CheckOutcome `json:"results"`
}

// remoteError is the structured error body the backend sends with non-2xx statuses.
type remoteError struct {
	Error string `json:"error"`
}

// Check submits a batch of cookies to POST /api/check.
func (s *CheckerService) Check(ctx context.Context, cookies []string) (*models.ResultSet, error) {
	body, err := json.Marshal(map[string][]string{"cookies": cookies})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var payload checkPayload
	if err := s.doRequest(ctx, http.MethodPost, "/api/check", body, &payload); err != nil {
		return nil, err
	}

	return resultSetFromPayload(payload)
}

// History fetches GET /api/history. Backend ordering is preserved, never re-sorted.
func (s *CheckerService) History(ctx context.Context) ([]models.HistoryRecord, error) {
	var records []models.HistoryRecord
	if err := s.doRequest(ctx, http.MethodGet, "/api/history", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Session fetches GET /api/session/{id} for a previously computed result set.
func (s *CheckerService) Session(ctx context.Context, sessionID string) (*models.ResultSet, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}

	var payload checkPayload
	if err := s.doRequest(ctx, http.MethodGet, "/api/session/"+sessionID, nil, &payload); err != nil {
		return nil, err
	}

	return resultSetFromPayload(payload)
}

// Delete issues DELETE /api/delete/{id}.
//
// A 404 maps to [shared.ErrSessionNotFound]; callers treating repeated deletes
// as idempotent accept that as a terminal state.
func (s *CheckerService) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}
	return s.doRequest(ctx, http.MethodDelete, "/api/delete/"+sessionID, nil, nil)
}

// DownloadArchiveURL constructs the GET /api/download/{id} URL.
// The archive body itself is opaque to the client.
func (s *CheckerService) DownloadArchiveURL(sessionID string) string {
	return s.baseURL + "/api/download/" + sessionID
}

// DownloadArchive streams the binary export of a session into w.
func (s *CheckerService) DownloadArchive(ctx context.Context, sessionID string, w io.Writer) (int64, error) {
	if sessionID == "" {
		return 0, fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}

	if err := s.wait(ctx); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.DownloadArchiveURL(sessionID), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return 0, statusError(resp.StatusCode, body)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to write archive: %w", err)
	}
	return n, nil
}

// GlobalStats fetches GET /api/global_stats.
func (s *CheckerService) GlobalStats(ctx context.Context) (*models.GlobalStats, error) {
	var stats models.GlobalStats
	if err := s.doRequest(ctx, http.MethodGet, "/api/global_stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// LegacyStats fetches GET /api/stats, the deprecated counter shape.
func (s *CheckerService) LegacyStats(ctx context.Context) (*models.LegacyStats, error) {
	var stats models.LegacyStats
	if err := s.doRequest(ctx, http.MethodGet, "/api/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Health probes GET /health.
func (s *CheckerService) Health(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodGet, "/health", nil, nil)
}

// doRequest performs an HTTP request against the backend and decodes a JSON
// response into result when it is non-nil.
func (s *CheckerService) doRequest(ctx context.Context, method, path string, body []byte, result any) error {
	if err := s.wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", shared.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, data)
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
		}
	}

	return nil
}

// wait applies the client-side rate limit, honoring context cancellation.
func (s *CheckerService) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}
	return nil
}

// statusError maps a non-2xx response to the error taxonomy: a structured
// {"error": msg} body surfaces the message verbatim, anything else is a
// transport failure. 404 additionally marks the session as unknown.
func statusError(status int, body []byte) error {
	var remote remoteError
	if err := json.Unmarshal(body, &remote); err == nil && remote.Error != "" {
		if status == http.StatusNotFound {
			return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, remote.Error)
		}
		return fmt.Errorf("%w: %s", shared.ErrRemote, remote.Error)
	}

	if status == http.StatusNotFound {
		return fmt.Errorf("%w: status %d", shared.ErrSessionNotFound, status)
	}
	return fmt.Errorf("%w: status %d", shared.ErrTransport, status)
}

// resultSetFromPayload validates presence of the contract fields and hands the
// counts to [models.NewResultSet] for invariant checking.
func resultSetFromPayload(payload checkPayload) (*models.ResultSet, error) {
	if payload.Total == nil || payload.Valid == nil || payload.Invalid == nil || payload.Results == nil {
		return nil, fmt.Errorf("%w: missing total/valid/invalid/results", shared.ErrMalformedResponse)
	}

	return models.NewResultSet(payload.SessionID, *payload.Total, *payload.Valid, *payload.Invalid, *payload.Results)
}
