// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing check results:
//  1. [HistoryListView] : Browse past checks from the backend history
//  2. [ResultTableView] : Inspect one check's valid accounts and invalid rows
//  3. [DetailView] : Full account detail for a selected valid result
//  4. [ConfirmDeleteView] : Confirm removal of a past check
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Remote fetches run as tea.Cmd closures so the event loop never blocks on the network.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
