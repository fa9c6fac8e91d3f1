// Package util holds small helpers shared by TUI components.
package util

import (
	tea "charm.land/bubbletea/v2"
)

// Model is a component that renders to a string rather than a tea.View.
type Model interface {
	Init() tea.Cmd
	Update(tea.Msg) (Model, tea.Cmd)
	View() string
}

// CmdHandler wraps a message in a command.
func CmdHandler(msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return msg
	}
}

// InfoType is the severity of a status message.
type InfoType int

// Info types.
const (
	InfoTypeInfo InfoType = iota
	InfoTypeSuccess
	InfoTypeWarn
	InfoTypeError
)

// InfoMsg is a status line message.
type InfoMsg struct {
	Type InfoType
	Msg  string
}

// ReportError reports err as an error status. A nil error clears the status.
func ReportError(err error) tea.Cmd {
	if err == nil {
		return CmdHandler(InfoMsg{})
	}
	return CmdHandler(InfoMsg{Type: InfoTypeError, Msg: err.Error()})
}

// ReportWarn reports a warning.
func ReportWarn(msg string) tea.Cmd {
	return CmdHandler(InfoMsg{Type: InfoTypeWarn, Msg: msg})
}

// ReportSuccess reports a success.
func ReportSuccess(msg string) tea.Cmd {
	return CmdHandler(InfoMsg{Type: InfoTypeSuccess, Msg: msg})
}

// ReportInfo reports an informational message.
func ReportInfo(msg string) tea.Cmd {
	return CmdHandler(InfoMsg{Type: InfoTypeInfo, Msg: msg})
}
