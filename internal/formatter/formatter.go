// package formatter converts result sets and history records into
// display-ready view models and export formats (CSV, plain text).
//
// Rendering is total: any field the backend omitted resolves to a typed
// default (numeric 0, string "N/A", bool false) instead of failing, and the
// same result set always produces the same view.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ckx/internal/models"
	"github.com/desertthunder/ckx/internal/shared"
)

const (
	// placeholder substitutes absent string fields.
	placeholder = "N/A"
	// redactLen bounds how much of a token is ever shown.
	redactLen = 20
)

// Summary carries the reconciled batch counts.
type Summary struct {
	Total   int
	Valid   int
	Invalid int
}

// AccountCard is the display form of one valid outcome with all fields resolved.
type AccountCard struct {
	Index int // 1-based display index, presentation only

	CookiePreview string

	Username        string
	DisplayName     string
	UserID          int64
	CreatedDate     string
	AccountAgeDays  int
	AccountAgeYears int
	ProfileURL      string

	RobuxBalance int64
	PendingRobux int64
	TotalRobux   int64

	IsPremium     bool
	PremiumStatus string

	TwoFactorEnabled bool

	FriendsCount   int
	FollowersCount int
	FollowingCount int

	AccountValue float64
}

// InvalidRow is the display form of one invalid outcome.
// Only the redacted token prefix and the reason are ever shown.
type InvalidRow struct {
	Index         int
	CookiePreview string
	Error         string
}

// ResultView is the renderer output for one result set.
type ResultView struct {
	SessionID   string
	Summary     Summary
	Cards       []AccountCard
	InvalidRows []InvalidRow
	HasInvalid  bool
}

// DetailRow is one label/value pair of an account detail view.
type DetailRow struct {
	Label string
	Value string
}

// HistoryRow is the display form of one history record.
type HistoryRow struct {
	SessionID      string
	CheckDate      string
	TotalCookies   int
	ValidCookies   int
	InvalidCookies int
}

// HistoryStats aggregates a history listing client-side.
type HistoryStats struct {
	TotalChecks  int
	TotalCookies int
	ValidCookies int
	SuccessRate  float64
}

// HistoryView is the renderer output for a history listing.
type HistoryView struct {
	Rows  []HistoryRow
	Stats HistoryStats
}

// RedactCookie reduces a token to a bounded-length prefix for display.
// Tokens at or under the bound pass through unchanged.
func RedactCookie(cookie string) string {
	if len(cookie) <= redactLen {
		return cookie
	}
	return cookie[:redactLen] + "..."
}

// BuildResultView partitions a result set into valid cards and invalid rows,
// preserving relative order, and resolves every display field defensively.
//
// Display indexes run 1..Total across cards then invalid rows; they are
// presentation-only and independent of item positions. A nil result set
// yields a zeroed view.
func BuildResultView(rs *models.ResultSet) ResultView {
	if rs == nil {
		return ResultView{}
	}

	view := ResultView{
		SessionID: rs.SessionID,
		Summary:   Summary{Total: rs.Total, Valid: rs.Valid, Invalid: rs.Invalid},
	}

	index := 0
	for _, item := range rs.Items {
		if !item.Valid {
			continue
		}
		index++
		view.Cards = append(view.Cards, buildCard(index, item))
	}
	for _, item := range rs.Items {
		if item.Valid {
			continue
		}
		index++
		reason := item.Error
		if reason == "" {
			reason = placeholder
		}
		view.InvalidRows = append(view.InvalidRows, InvalidRow{
			Index:         index,
			CookiePreview: RedactCookie(item.Cookie),
			Error:         reason,
		})
	}

	view.HasInvalid = len(view.InvalidRows) > 0
	return view
}

// buildCard resolves one valid outcome, defaulting every absent field.
func buildCard(index int, item models.CheckOutcome) AccountCard {
	card := AccountCard{
		Index:         index,
		CookiePreview: RedactCookie(item.Cookie),
		Username:      placeholder,
		DisplayName:   placeholder,
		CreatedDate:   placeholder,
		ProfileURL:    placeholder,
		PremiumStatus: placeholder,
		AccountValue:  item.AccountValue,
	}

	if info := item.AccountInfo; info != nil {
		if info.Username != "" {
			card.Username = info.Username
		}
		if info.DisplayName != "" {
			card.DisplayName = info.DisplayName
		}
		card.UserID = info.UserID
		if info.CreatedDate != "" {
			card.CreatedDate = info.CreatedDate
		}
		card.AccountAgeDays = info.AccountAgeDays
		card.AccountAgeYears = info.AccountAgeYears
		if info.ProfileURL != "" {
			card.ProfileURL = info.ProfileURL
		}
	}

	if eco := item.Economy; eco != nil {
		card.RobuxBalance = eco.RobuxBalance
		card.PendingRobux = eco.PendingRobux
		card.TotalRobux = eco.TotalRobux
	}

	if premium := item.Premium; premium != nil {
		card.IsPremium = premium.IsPremium
		if premium.Status != "" {
			card.PremiumStatus = premium.Status
		}
	}

	if sec := item.Security; sec != nil {
		card.TwoFactorEnabled = sec.TwoFactorEnabled
	}

	if social := item.Social; social != nil {
		card.FriendsCount = social.FriendsCount
		card.FollowersCount = social.FollowersCount
		card.FollowingCount = social.FollowingCount
	}

	return card
}

// DetailRows expands a card into the full label/value listing shown in the
// account detail view.
func DetailRows(card AccountCard) []DetailRow {
	yesNo := func(b bool) string {
		if b {
			return "Yes"
		}
		return "No"
	}

	return []DetailRow{
		{Label: "Username", Value: card.Username},
		{Label: "Display name", Value: card.DisplayName},
		{Label: "User ID", Value: strconv.FormatInt(card.UserID, 10)},
		{Label: "Created", Value: card.CreatedDate},
		{Label: "Account age", Value: fmt.Sprintf("%d days (%d years)", card.AccountAgeDays, card.AccountAgeYears)},
		{Label: "Robux balance", Value: shared.FormatCount(card.RobuxBalance) + " R$"},
		{Label: "Pending Robux", Value: shared.FormatCount(card.PendingRobux) + " R$"},
		{Label: "Total Robux", Value: shared.FormatCount(card.TotalRobux) + " R$"},
		{Label: "Premium", Value: card.PremiumStatus},
		{Label: "2FA enabled", Value: yesNo(card.TwoFactorEnabled)},
		{Label: "Friends", Value: shared.FormatCount(int64(card.FriendsCount))},
		{Label: "Followers", Value: shared.FormatCount(int64(card.FollowersCount))},
		{Label: "Following", Value: shared.FormatCount(int64(card.FollowingCount))},
		{Label: "Estimated value", Value: fmt.Sprintf("$%.2f", card.AccountValue)},
		{Label: "Profile", Value: card.ProfileURL},
	}
}

// BuildHistoryView formats history records for display and computes the
// client-side aggregates shown above the listing. Record order is preserved.
func BuildHistoryView(records []models.HistoryRecord) HistoryView {
	view := HistoryView{}

	for _, rec := range records {
		view.Rows = append(view.Rows, HistoryRow{
			SessionID:      rec.SessionID,
			CheckDate:      FormatCheckDate(rec.CheckDate),
			TotalCookies:   rec.TotalCookies,
			ValidCookies:   rec.ValidCookies,
			InvalidCookies: rec.TotalCookies - rec.ValidCookies,
		})

		view.Stats.TotalChecks++
		view.Stats.TotalCookies += rec.TotalCookies
		view.Stats.ValidCookies += rec.ValidCookies
	}

	if view.Stats.TotalCookies > 0 {
		view.Stats.SuccessRate = float64(view.Stats.ValidCookies) / float64(view.Stats.TotalCookies) * 100
	}

	return view
}

// FormatCheckDate renders a stored timestamp for display.
// Unparseable input passes through unchanged rather than failing.
func FormatCheckDate(ts string) string {
	if ts == "" {
		return placeholder
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.Format("2006-01-02 15:04")
		}
	}
	return ts
}

// ExportToCSV converts a result view to CSV with one row per outcome.
func ExportToCSV(view ResultView) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Status", "Username", "UserID", "TotalRobux", "Premium", "Friends", "Value", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, card := range view.Cards {
		record := []string{
			"VALID",
			card.Username,
			strconv.FormatInt(card.UserID, 10),
			strconv.FormatInt(card.TotalRobux, 10),
			strconv.FormatBool(card.IsPremium),
			strconv.Itoa(card.FriendsCount),
			fmt.Sprintf("%.2f", card.AccountValue),
			"",
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	for _, row := range view.InvalidRows {
		record := []string{"INVALID", "", "", "", "", "", "", row.Error}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a result view to plain text.
func ExportToText(view ResultView) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Session: %s\n", view.SessionID))
	buf.WriteString(fmt.Sprintf("Total: %d  Valid: %d  Invalid: %d\n\n", view.Summary.Total, view.Summary.Valid, view.Summary.Invalid))

	for _, card := range view.Cards {
		buf.WriteString(fmt.Sprintf("%d. [VALID] %s (ID %d) - %s R$ - $%.2f\n",
			card.Index, card.Username, card.UserID, shared.FormatCount(card.TotalRobux), card.AccountValue))
	}

	if view.HasInvalid {
		buf.WriteString("\nInvalid:\n")
		for _, row := range view.InvalidRows {
			buf.WriteString(fmt.Sprintf("%d. [INVALID] %s - %s\n", row.Index, row.CookiePreview, row.Error))
		}
	}

	return buf.Bytes()
}

// WriteValidCookies writes the full tokens of every valid outcome to path,
// one per line, and returns the path and count written.
//
// This is the only consumer of unredacted tokens; views never carry them.
func WriteValidCookies(rs *models.ResultSet, path string) (string, int, error) {
	if rs == nil {
		return "", 0, fmt.Errorf("no result set to export")
	}
	if path == "" {
		path = fmt.Sprintf("%s_valid.txt", rs.SessionID)
	}

	var buf bytes.Buffer
	count := 0
	for _, item := range rs.Items {
		if !item.Valid || item.Cookie == "" {
			continue
		}
		buf.WriteString(item.Cookie)
		buf.WriteByte('\n')
		count++
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return "", 0, fmt.Errorf("failed to write cookie file: %w", err)
	}

	return path, count, nil
}

// WriteExport writes a result view to path, picking the format from the
// file extension: .txt gets the plain-text form, anything else CSV.
func WriteExport(view ResultView, path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		if err := os.WriteFile(path, ExportToText(view), 0644); err != nil {
			return "", fmt.Errorf("failed to write text file: %w", err)
		}
		return path, nil
	}
	return WriteCSVExport(view, path)
}

// WriteCSVExport writes the CSV form of a result view to path.
//
// Defaults to {session}_results.csv.
func WriteCSVExport(view ResultView, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_results.csv", view.SessionID)
	}

	data, err := ExportToCSV(view)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return path, nil
}
