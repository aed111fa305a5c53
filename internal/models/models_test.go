package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/desertthunder/ckx/internal/shared"
)

func validOutcome(cookie string) CheckOutcome {
	return CheckOutcome{
		Valid:  true,
		Cookie: cookie,
		AccountInfo: &AccountInfo{
			Username: "builderman",
			UserID:   156,
		},
	}
}

func invalidOutcome(cookie, reason string) CheckOutcome {
	return CheckOutcome{Valid: false, Cookie: cookie, Error: reason}
}

func TestNewResultSet(t *testing.T) {
	t.Run("AcceptsConsistentCounts", func(t *testing.T) {
		items := []CheckOutcome{
			validOutcome("aaa"),
			invalidOutcome("bbb", "Invalid cookie"),
		}

		rs, err := NewResultSet("sess-1", 2, 1, 1, items)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rs.Total != 2 || rs.Valid != 1 || rs.Invalid != 1 {
			t.Errorf("counts = %d/%d/%d, want 2/1/1", rs.Total, rs.Valid, rs.Invalid)
		}
		if len(rs.Items) != 2 {
			t.Errorf("items = %d, want 2", len(rs.Items))
		}
	})

	t.Run("AcceptsEmptySet", func(t *testing.T) {
		rs, err := NewResultSet("sess-1", 0, 0, 0, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rs.Total != 0 {
			t.Errorf("total = %d, want 0", rs.Total)
		}
	})

	t.Run("RejectsCountMismatches", func(t *testing.T) {
		items := []CheckOutcome{
			validOutcome("aaa"),
			invalidOutcome("bbb", "Invalid cookie"),
		}

		cases := []struct {
			name    string
			total   int
			valid   int
			invalid int
			items   []CheckOutcome
		}{
			{"TotalNotSumOfParts", 2, 2, 1, items},
			{"TotalNotItemCount", 3, 2, 1, items},
			{"ValidNotItemValidCount", 2, 2, 0, items},
			{"ItemsMissing", 2, 1, 1, items[:1]},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := NewResultSet("sess-1", tc.total, tc.valid, tc.invalid, tc.items)
				if !errors.Is(err, shared.ErrMalformedResponse) {
					t.Errorf("expected ErrMalformedResponse, got %v", err)
				}
			})
		}
	})

	t.Run("PreservesItemOrder", func(t *testing.T) {
		items := []CheckOutcome{
			invalidOutcome("first", "expired"),
			validOutcome("second"),
			invalidOutcome("third", "expired"),
		}

		rs, err := NewResultSet("sess-1", 3, 1, 2, items)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, want := range []string{"first", "second", "third"} {
			if rs.Items[i].Cookie != want {
				t.Errorf("item %d cookie = %q, want %q", i, rs.Items[i].Cookie, want)
			}
		}
	})
}

func TestWireTags(t *testing.T) {
	t.Run("PremiumUsesCamelCaseFlag", func(t *testing.T) {
		var p Premium
		if err := json.Unmarshal([]byte(`{"isPremium": true, "status": "Premium"}`), &p); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if !p.IsPremium || p.Status != "Premium" {
			t.Errorf("premium = %+v", p)
		}
	})

	t.Run("SecurityUsesNumericKey", func(t *testing.T) {
		var s Security
		if err := json.Unmarshal([]byte(`{"2fa_enabled": true}`), &s); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if !s.TwoFactorEnabled {
			t.Error("2fa flag not decoded")
		}
	})

	t.Run("ResultSetItemsDecodeFromResultsKey", func(t *testing.T) {
		payload := `{"session_id": "abc", "total": 1, "valid": 0, "invalid": 1,
			"results": [{"valid": false, "cookie": "tok", "error": "Invalid cookie"}]}`

		var rs ResultSet
		if err := json.Unmarshal([]byte(payload), &rs); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if len(rs.Items) != 1 || rs.Items[0].Error != "Invalid cookie" {
			t.Errorf("items = %+v", rs.Items)
		}
	})

	t.Run("OutcomeSectionsAbsentWhenNil", func(t *testing.T) {
		data, err := json.Marshal(invalidOutcome("tok", "expired"))
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		for _, key := range []string{"account_info", "economy", "premium", "security", "social"} {
			if json.Valid(data) && containsKey(t, data, key) {
				t.Errorf("key %q should be omitted for invalid outcome", key)
			}
		}
	})
}

func containsKey(t *testing.T, data []byte, key string) bool {
	t.Helper()
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	_, ok := m[key]
	return ok
}
