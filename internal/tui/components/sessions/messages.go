package sessions

// ModalClosedMsg is sent when the modal is dismissed without a choice.
type ModalClosedMsg struct{}

// SessionSelectedMsg is sent when a session is picked from the list.
type SessionSelectedMsg struct {
	SessionID string
}

// NewSessionMsg asks for a new session. An empty title means the default.
type NewSessionMsg struct {
	Title string
}
