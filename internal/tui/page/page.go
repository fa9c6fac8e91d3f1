// Package page names the top-level screens.
package page

// ID identifies a page.
type ID string

// Pages.
const (
	Welcome ID = "welcome"
	Chat    ID = "chat"
)

// ChangeMsg switches the visible page.
type ChangeMsg struct {
	Page ID
}
