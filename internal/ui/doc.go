// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for catalog matching:
//  1. [CollectionListView] : Browse the local library's collections
//  2. [TrackListView] : Preview a collection's tracks
//  3. [ConfirmView] : Confirm the match operation
//  4. [MatchView] : Monitor real-time progress updates
//  5. [ResultView] : Display match rates and unmatched tracks
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the MatchEngine, providing non-blocking status reporting during matching.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
