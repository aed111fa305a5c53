package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ckx/internal/formatter"
	"github.com/desertthunder/ckx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	HistoryListView ViewState = iota
	ResultTableView
	DetailView
	ConfirmDeleteView
)

// Model represents the TUI application state.
type Model struct {
	ctx           context.Context
	view          ViewState
	engine        *tasks.CheckEngine
	width         int
	height        int
	historyList   list.Model
	historyView   formatter.HistoryView
	resultList    list.Model
	resultView    formatter.ResultView
	selectedCard  *formatter.AccountCard
	pendingDelete string
	err           error
	help          help.Model
	keys          keyMap
}

type historyFetchedMsg struct {
	view formatter.HistoryView
	err  error
}

type sessionFetchedMsg struct {
	view formatter.ResultView
	err  error
}

type sessionDeletedMsg struct {
	sessionID string
	err       error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, engine *tasks.CheckEngine) *Model {
	return &Model{
		ctx:    ctx,
		view:   HistoryListView,
		engine: engine,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init initializes the TUI by fetching check history from the backend.
func (m *Model) Init() tea.Cmd {
	return m.fetchHistory()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.historyList.Width() == 0 {
			m.historyList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.resultList.Width() == 0 {
			m.resultList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case HistoryListView:
			return m.handleHistoryKeys(msg)
		case ResultTableView:
			return m.handleResultKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case ConfirmDeleteView:
			return m.handleConfirmKeys(msg)
		}

	case historyFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.err = nil
		m.historyView = msg.view
		items := make([]list.Item, len(msg.view.Rows))
		for i, row := range msg.view.Rows {
			items[i] = historyItem{row: row}
		}
		m.historyList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.historyList.Title = "Check History"
		m.historyList.SetSize(m.width-4, m.height-8)
		m.view = HistoryListView
		return m, nil

	case sessionFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = HistoryListView
			return m, nil
		}
		m.err = nil
		m.resultView = msg.view
		items := make([]list.Item, 0, len(msg.view.Cards)+len(msg.view.InvalidRows))
		for _, card := range msg.view.Cards {
			items = append(items, cardItem{card: card})
		}
		for _, row := range msg.view.InvalidRows {
			items = append(items, invalidItem{row: row})
		}
		m.resultList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.resultList.Title = fmt.Sprintf("Session %s • %d/%d valid",
			msg.view.SessionID, msg.view.Summary.Valid, msg.view.Summary.Total)
		m.resultList.SetSize(m.width-4, m.height-8)
		m.view = ResultTableView
		return m, nil

	case sessionDeletedMsg:
		m.pendingDelete = ""
		if msg.err != nil {
			m.err = msg.err
			m.view = HistoryListView
			return m, nil
		}
		return m, m.fetchHistory()
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view == HistoryListView && len(m.historyView.Rows) == 0 {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case HistoryListView:
		return m.renderHistoryList()
	case ResultTableView:
		return m.renderResultList()
	case DetailView:
		return m.renderDetail()
	case ConfirmDeleteView:
		return m.renderConfirmDelete()
	default:
		return ""
	}
}

func (m *Model) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		return m, m.fetchHistory()
	case "d":
		if item, ok := m.historyList.SelectedItem().(historyItem); ok {
			m.pendingDelete = item.row.SessionID
			m.view = ConfirmDeleteView
		}
		return m, nil
	case "enter":
		if item, ok := m.historyList.SelectedItem().(historyItem); ok {
			return m, m.fetchSession(item.row.SessionID)
		}
	}

	var cmd tea.Cmd
	m.historyList, cmd = m.historyList.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = HistoryListView
		return m, nil
	case "enter":
		if item, ok := m.resultList.SelectedItem().(cardItem); ok {
			card := item.card
			m.selectedCard = &card
			m.view = DetailView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.resultList, cmd = m.resultList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.selectedCard = nil
		m.view = ResultTableView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.pendingDelete = ""
		m.view = HistoryListView
		return m, nil
	case "y":
		return m, m.deleteSession(m.pendingDelete)
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case HistoryListView:
		m.historyList, cmd = m.historyList.Update(msg)
	case ResultTableView:
		m.resultList, cmd = m.resultList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchHistory() tea.Cmd {
	return func() tea.Msg {
		records, err := m.engine.History(m.ctx, nil)
		if err != nil {
			return historyFetchedMsg{err: err}
		}
		return historyFetchedMsg{view: formatter.BuildHistoryView(records)}
	}
}

func (m *Model) fetchSession(sessionID string) tea.Cmd {
	return func() tea.Msg {
		rs, err := m.engine.LoadSession(m.ctx, sessionID, nil)
		if err != nil {
			return sessionFetchedMsg{err: err}
		}
		return sessionFetchedMsg{view: formatter.BuildResultView(rs)}
	}
}

func (m *Model) deleteSession(sessionID string) tea.Cmd {
	return func() tea.Msg {
		err := m.engine.Delete(m.ctx, sessionID)
		return sessionDeletedMsg{sessionID: sessionID, err: err}
	}
}

func (m *Model) renderHistoryList() string {
	stats := m.historyView.Stats
	footer := styles.help.Render(fmt.Sprintf(
		"%d checks • %d cookies • %.1f%% valid",
		stats.TotalChecks, stats.TotalCookies, stats.SuccessRate,
	))

	helpKeys := []key.Binding{m.keys.enter, m.keys.delete, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	body := m.historyList.View()
	if m.err != nil {
		body = fmt.Sprintf("%s\n%s", body, styles.warn.Render(fmt.Sprintf("Error: %v", m.err)))
	}
	return fmt.Sprintf("%s\n%s\n\n%s", body, footer, helpView)
}

func (m *Model) renderResultList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.resultList.View(), helpView)
}

func (m *Model) renderDetail() string {
	if m.selectedCard == nil {
		return styles.err.Render("No account selected\n\nPress esc to go back")
	}

	title := styles.title.Render(fmt.Sprintf("Account: %s", m.selectedCard.Username))

	var b strings.Builder
	for _, row := range formatter.DetailRows(*m.selectedCard) {
		fmt.Fprintf(&b, "%-18s %s\n", row.Label+":", row.Value)
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, b.String(), helpView)
}

func (m *Model) renderConfirmDelete() string {
	title := styles.title.Render(fmt.Sprintf("Delete check '%s'?", m.pendingDelete))
	info := styles.warn.Render("This removes the session and its results from the backend.")

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}
