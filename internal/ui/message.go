package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/wpx/internal/tasks"
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
	MsgJobComplete
)

// jobOutcome is the payload of [MsgJobComplete]
type jobOutcome struct {
	result *Result
	err    error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// jobCompleteMsg is the constructor for [MsgJobComplete]
func jobCompleteMsg(result *Result, err error) Msg {
	return Msg{kind: MsgJobComplete, data: jobOutcome{result: result, err: err}}
}
