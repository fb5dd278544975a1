package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/geo-martino/musify/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgMatchComplete
)

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// matchCompleteMsg is the constructor for [MsgMatchComplete]
func matchCompleteMsg(report *tasks.Report, err error) Msg {
	return Msg{
		kind: MsgMatchComplete,
		data: struct {
			report *tasks.Report
			err    error
		}{report, err},
	}
}
