// Package repositories implements SQLite persistence for local check history.
//
// The backend owns the authoritative history; the local cache backs offline
// listing and survives backend resets. Records support soft deletes via
// deleted_at timestamps and are excluded from queries once deleted.
package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/ckx/internal/models"
	"github.com/desertthunder/ckx/internal/shared"
)

// CheckRepository persists [models.HistoryRecord] summaries of past checks.
type CheckRepository struct {
	db *sql.DB
}

// NewCheckRepository creates a new [CheckRepository] with the given database connection
func NewCheckRepository(db *sql.DB) *CheckRepository {
	return &CheckRepository{db: db}
}

// Record upserts a check summary keyed by session id.
//
// Re-recording a session (e.g. after re-fetching it) refreshes the counts and
// revives a soft-deleted row.
func (r *CheckRepository) Record(sessionID string, checkDate time.Time, total, valid int) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id required", shared.ErrValidation)
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO checks (id, session_id, check_date, total_cookies, valid_cookies, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			check_date = excluded.check_date,
			total_cookies = excluded.total_cookies,
			valid_cookies = excluded.valid_cookies,
			updated_at = excluded.updated_at,
			deleted_at = NULL
	`

	_, err := r.db.Exec(query, shared.GenerateID(), sessionID, checkDate.UTC(), total, valid, now, now)
	if err != nil {
		return fmt.Errorf("failed to record check: %w", err)
	}

	return nil
}

// Get retrieves one check summary by session id, excluding soft-deleted rows.
func (r *CheckRepository) Get(sessionID string) (*models.HistoryRecord, error) {
	query := `
		SELECT rowid, session_id, check_date, total_cookies, valid_cookies
		FROM checks
		WHERE session_id = ? AND deleted_at IS NULL
	`

	var (
		rowid     int64
		sid       string
		checkDate time.Time
		total     int
		valid     int
	)

	err := r.db.QueryRow(query, sessionID).Scan(&rowid, &sid, &checkDate, &total, &valid)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query check: %w", err)
	}

	return &models.HistoryRecord{
		ID:           rowid,
		SessionID:    sid,
		CheckDate:    checkDate.UTC().Format(time.RFC3339),
		TotalCookies: total,
		ValidCookies: valid,
	}, nil
}

// List returns all cached check summaries, newest first, excluding soft-deleted rows.
func (r *CheckRepository) List() ([]models.HistoryRecord, error) {
	query := `
		SELECT rowid, session_id, check_date, total_cookies, valid_cookies
		FROM checks
		WHERE deleted_at IS NULL
		ORDER BY check_date DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query checks: %w", err)
	}
	defer rows.Close()

	var records []models.HistoryRecord
	for rows.Next() {
		var (
			rowid     int64
			sid       string
			checkDate time.Time
			total     int
			valid     int
		)
		if err := rows.Scan(&rowid, &sid, &checkDate, &total, &valid); err != nil {
			return nil, fmt.Errorf("failed to scan check row: %w", err)
		}
		records = append(records, models.HistoryRecord{
			ID:           rowid,
			SessionID:    sid,
			CheckDate:    checkDate.UTC().Format(time.RFC3339),
			TotalCookies: total,
			ValidCookies: valid,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate check rows: %w", err)
	}

	return records, nil
}

// Delete soft-deletes a check summary by session id. Deleting an unknown or
// already-deleted session is a no-op.
func (r *CheckRepository) Delete(sessionID string) error {
	query := `
		UPDATE checks
		SET deleted_at = ?, updated_at = ?
		WHERE session_id = ? AND deleted_at IS NULL
	`

	now := time.Now().UTC()
	if _, err := r.db.Exec(query, now, now, sessionID); err != nil {
		return fmt.Errorf("failed to delete check: %w", err)
	}

	return nil
}

// Clear soft-deletes every cached check summary.
func (r *CheckRepository) Clear() error {
	query := `
		UPDATE checks
		SET deleted_at = ?, updated_at = ?
		WHERE deleted_at IS NULL
	`

	now := time.Now().UTC()
	if _, err := r.db.Exec(query, now, now); err != nil {
		return fmt.Errorf("failed to clear checks: %w", err)
	}

	return nil
}
