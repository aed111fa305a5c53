package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/ckx/internal/formatter"
)

var (
	_ list.Item = historyItem{}
	_ list.Item = cardItem{}
	_ list.Item = invalidItem{}
)

// historyItem wraps [formatter.HistoryRow] to implement [list.Item].
type historyItem struct {
	row formatter.HistoryRow
}

func (i historyItem) FilterValue() string { return i.row.SessionID }
func (i historyItem) Title() string       { return i.row.SessionID }
func (i historyItem) Description() string {
	return fmt.Sprintf("%s • %d/%d valid", i.row.CheckDate, i.row.ValidCookies, i.row.TotalCookies)
}

// cardItem wraps [formatter.AccountCard] to implement [list.Item].
type cardItem struct {
	card formatter.AccountCard
}

func (i cardItem) FilterValue() string { return i.card.Username }
func (i cardItem) Title() string {
	return fmt.Sprintf("#%d %s", i.card.Index, i.card.Username)
}
func (i cardItem) Description() string {
	desc := fmt.Sprintf("R$ %d • %d friends", i.card.TotalRobux, i.card.FriendsCount)
	if i.card.IsPremium {
		desc = fmt.Sprintf("%s • %s", desc, i.card.PremiumStatus)
	}
	return desc
}

// invalidItem wraps [formatter.InvalidRow] to implement [list.Item].
type invalidItem struct {
	row formatter.InvalidRow
}

func (i invalidItem) FilterValue() string { return i.row.CookiePreview }
func (i invalidItem) Title() string {
	return fmt.Sprintf("#%d %s", i.row.Index, i.row.CookiePreview)
}
func (i invalidItem) Description() string { return i.row.Error }
