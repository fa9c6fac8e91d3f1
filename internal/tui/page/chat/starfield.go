package chat

import (
	"math"
	"math/rand/v2"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/guilhermegouw/unwind/internal/tui/styles"
)

const (
	starCount    = 60
	starRows     = 3
	starInterval = 125 * time.Millisecond
	// One fade from dark to bright; the twinkle then runs back.
	twinklePeriod = 2500 * time.Millisecond
)

// Dim to bright.
var starGlyphs = []string{" ", "·", "∙", "•", "✦"}

// StarTickMsg advances the starfield.
type StarTickMsg struct{}

type star struct {
	x     float64
	row   int
	delay time.Duration
}

// Starfield is the twinkling header above the conversation.
type Starfield struct {
	stars   []star
	elapsed time.Duration
	width   int
}

// NewStarfield places starCount stars using a fixed seed, so the sky looks
// the same on every launch.
func NewStarfield(seed uint64) *Starfield {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // decorative randomness
	stars := make([]star, starCount)
	for i := range stars {
		stars[i] = star{
			x:     rng.Float64(),
			row:   rng.IntN(starRows),
			delay: time.Duration(rng.Int64N(int64(4 * time.Second))),
		}
	}
	return &Starfield{stars: stars}
}

// SetWidth sets the header width.
func (s *Starfield) SetWidth(width int) {
	s.width = width
}

// Height returns the number of rows drawn.
func (s *Starfield) Height() int {
	return starRows
}

// Tick schedules the next frame.
func (s *Starfield) Tick() tea.Cmd {
	return tea.Tick(starInterval, func(time.Time) tea.Msg {
		return StarTickMsg{}
	})
}

// Update advances the animation on StarTickMsg.
func (s *Starfield) Update(msg tea.Msg) (*Starfield, tea.Cmd) {
	if _, ok := msg.(StarTickMsg); ok {
		s.elapsed += starInterval
		return s, s.Tick()
	}
	return s, nil
}

// brightness returns star i's brightness in [0, 1] as a triangle wave that
// rises for one twinkle period and falls for the next.
func (s *Starfield) brightness(i int) float64 {
	phase := float64(s.elapsed+s.stars[i].delay) / float64(twinklePeriod)
	frac := math.Mod(phase, 2)
	if frac > 1 {
		frac = 2 - frac
	}
	// Never fully dark so the sky keeps its shape.
	return 0.2 + 0.8*frac
}

// View renders the starfield rows.
func (s *Starfield) View() string {
	if s.width <= 0 {
		return strings.Repeat("\n", starRows-1)
	}
	t := styles.CurrentTheme()
	ramp := styles.Blend(t.FgSubtle, t.Accent, len(starGlyphs))

	type cell struct{ level int }
	grid := make([][]cell, starRows)
	for r := range grid {
		grid[r] = make([]cell, s.width)
	}
	for i, st := range s.stars {
		col := min(int(st.x*float64(s.width)), s.width-1)
		level := int(math.Round(s.brightness(i) * float64(len(starGlyphs)-1)))
		if level > grid[st.row][col].level {
			grid[st.row][col].level = level
		}
	}

	lines := make([]string, starRows)
	for r, row := range grid {
		var b strings.Builder
		for _, c := range row {
			if c.level == 0 {
				b.WriteByte(' ')
				continue
			}
			b.WriteString(lipgloss.NewStyle().Foreground(ramp[c.level]).Render(starGlyphs[c.level]))
		}
		lines[r] = b.String()
	}
	return strings.Join(lines, "\n")
}
