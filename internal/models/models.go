// package models defines the wire types for the cookie checker backend
package models

import (
	"fmt"

	"github.com/desertthunder/ckx/internal/shared"
)

// AccountInfo describes the account a valid cookie belongs to.
type AccountInfo struct {
	Username        string `json:"username"`
	DisplayName     string `json:"display_name"`
	UserID          int64  `json:"user_id"`
	CreatedDate     string `json:"created_date"`
	AccountAgeDays  int    `json:"account_age_days"`
	AccountAgeYears int    `json:"account_age_years"`
	ProfileURL      string `json:"profile_url"`
}

// Economy holds currency balances for a valid account.
type Economy struct {
	RobuxBalance int64 `json:"robux_balance"`
	PendingRobux int64 `json:"pending_robux"`
	TotalRobux   int64 `json:"total_robux"`
}

// Premium holds membership state for a valid account.
type Premium struct {
	IsPremium bool   `json:"isPremium"`
	Status    string `json:"status"`
}

// Security holds account protection flags.
type Security struct {
	TwoFactorEnabled bool `json:"2fa_enabled"`
}

// Social holds relationship counters for a valid account.
type Social struct {
	FriendsCount   int `json:"friends_count"`
	FollowersCount int `json:"followers_count"`
	FollowingCount int `json:"following_count"`
}

// CheckOutcome is the per-token result of a batch check.
//
// Valid selects the variant: when true the account sections may be populated
// (any of them can still be absent), when false only Error carries meaning.
// Cookie is the opaque submitted token in both variants.
type CheckOutcome struct {
	Valid  bool   `json:"valid"`
	Cookie string `json:"cookie"`
	Error  string `json:"error,omitempty"`

	AccountInfo  *AccountInfo `json:"account_info,omitempty"`
	Economy      *Economy     `json:"economy,omitempty"`
	Premium      *Premium     `json:"premium,omitempty"`
	Security     *Security    `json:"security,omitempty"`
	Social       *Social      `json:"social,omitempty"`
	AccountValue float64      `json:"account_value,omitempty"`
}

// ResultSet is the reconciled outcome of one batch check.
// Item order is significant: it drives display order and index-based detail lookup.
type ResultSet struct {
	SessionID string         `json:"session_id"`
	Total     int            `json:"total"`
	Valid     int            `json:"valid"`
	Invalid   int            `json:"invalid"`
	Items     []CheckOutcome `json:"results"`
}

// NewResultSet builds a ResultSet from a decoded check payload after
// verifying the count invariants.
//
// A mismatch signals a backend contract break and fails with
// [shared.ErrMalformedResponse]; counts are never silently repaired.
func NewResultSet(sessionID string, total, valid, invalid int, items []CheckOutcome) (*ResultSet, error) {
	if total != valid+invalid {
		return nil, fmt.Errorf("%w: total %d != valid %d + invalid %d", shared.ErrMalformedResponse, total, valid, invalid)
	}
	if total != len(items) {
		return nil, fmt.Errorf("%w: total %d != %d results", shared.ErrMalformedResponse, total, len(items))
	}

	validCount := 0
	for _, item := range items {
		if item.Valid {
			validCount++
		}
	}
	if validCount != valid {
		return nil, fmt.Errorf("%w: valid %d != %d valid results", shared.ErrMalformedResponse, valid, validCount)
	}

	return &ResultSet{
		SessionID: sessionID,
		Total:     total,
		Valid:     valid,
		Invalid:   invalid,
		Items:     items,
	}, nil
}

// HistoryRecord is a persisted summary of a past ResultSet.
// SessionID is the join key for re-fetching the full result set.
type HistoryRecord struct {
	ID           int64  `json:"id"`
	SessionID    string `json:"session_id"`
	CheckDate    string `json:"check_date"`
	TotalCookies int    `json:"total_cookies"`
	ValidCookies int    `json:"valid_cookies"`
}

// GlobalStats is the canonical aggregate counter shape (GET /api/global_stats).
type GlobalStats struct {
	TotalChecked  int64 `json:"total_checked"`
	ValidAccounts int64 `json:"valid_accounts"`
	UniqueUsers   int64 `json:"unique_users"`
}

// LegacyStats is the older aggregate shape (GET /api/stats).
//
// Deprecated: the backend still serves it but global_stats is canonical.
// The two shapes are intentionally kept distinct rather than unified.
type LegacyStats struct {
	TotalChecks  int64   `json:"total_checks"`
	TotalCookies int64   `json:"total_cookies"`
	ValidCookies int64   `json:"valid_cookies"`
	SuccessRate  float64 `json:"success_rate"`
}
