// Package styles holds the colour theme and shared lipgloss styles.
package styles

import (
	"image/color"
	"sync"

	"charm.land/bubbles/v2/textinput"
	"charm.land/lipgloss/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// Selected is the marker drawn next to the highlighted list entry.
const Selected = "›"

// Theme is a named colour palette.
type Theme struct { //nolint:govet // fieldalignment: preserving logical field order
	Name   string
	IsDark bool

	Primary   color.Color
	Secondary color.Color
	Tertiary  color.Color
	Accent    color.Color

	BgBase    color.Color
	BgSubtle  color.Color
	BgOverlay color.Color

	FgBase   color.Color
	FgMuted  color.Color
	FgSubtle color.Color

	Border      color.Color
	BorderFocus color.Color

	Success color.Color
	Error   color.Color
	Warning color.Color
	Info    color.Color

	once   sync.Once
	styles *Styles
}

// Styles are the lipgloss styles derived from a theme.
type Styles struct {
	Text     lipgloss.Style
	Muted    lipgloss.Style
	Subtle   lipgloss.Style
	Primary  lipgloss.Style
	Title    lipgloss.Style
	Subtitle lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	TextInput textinput.Styles
}

// S returns the theme's styles, building them on first use.
func (t *Theme) S() *Styles {
	t.once.Do(func() {
		t.styles = t.buildStyles()
	})
	return t.styles
}

func (t *Theme) buildStyles() *Styles {
	base := lipgloss.NewStyle().Foreground(t.FgBase)

	ti := textinput.DefaultDarkStyles()
	ti.Focused.Prompt = lipgloss.NewStyle().Foreground(t.Primary)
	ti.Focused.Text = base
	ti.Focused.Placeholder = lipgloss.NewStyle().Foreground(t.FgSubtle)
	ti.Blurred.Prompt = lipgloss.NewStyle().Foreground(t.FgSubtle)
	ti.Blurred.Text = lipgloss.NewStyle().Foreground(t.FgMuted)
	ti.Blurred.Placeholder = lipgloss.NewStyle().Foreground(t.FgSubtle)

	return &Styles{
		Text:     base,
		Muted:    lipgloss.NewStyle().Foreground(t.FgMuted),
		Subtle:   lipgloss.NewStyle().Foreground(t.FgSubtle),
		Primary:  lipgloss.NewStyle().Foreground(t.Primary),
		Title:    lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		Subtitle: lipgloss.NewStyle().Foreground(t.Secondary),

		Success: lipgloss.NewStyle().Foreground(t.Success),
		Error:   lipgloss.NewStyle().Foreground(t.Error),
		Warning: lipgloss.NewStyle().Foreground(t.Warning),
		Info:    lipgloss.NewStyle().Foreground(t.Info),

		TextInput: ti,
	}
}

// Manager tracks the registered themes and the active one.
type Manager struct {
	themes  map[string]*Theme
	current *Theme
	mu      sync.RWMutex
}

var (
	defaultManager *Manager
	managerOnce    sync.Once
)

// NewManager returns the process-wide manager, creating it with the
// default theme active.
func NewManager() *Manager {
	managerOnce.Do(func() {
		t := NewDefaultTheme()
		defaultManager = &Manager{
			themes:  map[string]*Theme{t.Name: t},
			current: t,
		}
	})
	return defaultManager
}

// Current returns the active theme.
func (m *Manager) Current() *Theme {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// CurrentTheme returns the active theme of the process-wide manager.
func CurrentTheme() *Theme {
	return NewManager().Current()
}

// ParseHex parses a #rrggbb string. Invalid input yields black.
func ParseHex(hex string) color.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}
	}
	return c
}
