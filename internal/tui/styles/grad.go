package styles

import (
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"
)

// ApplyForegroundGrad colours text with a horizontal gradient from c1 to c2.
// Every line uses the same ramp so multi-line art stays aligned.
func ApplyForegroundGrad(text string, c1, c2 color.Color) string {
	lines := strings.Split(text, "\n")

	width := 0
	clusters := make([][]string, len(lines))
	for i, line := range lines {
		g := uniseg.NewGraphemes(line)
		for g.Next() {
			clusters[i] = append(clusters[i], g.Str())
		}
		width = max(width, len(clusters[i]))
	}
	if width == 0 {
		return text
	}

	ramp := Blend(c1, c2, width)
	var b strings.Builder
	for i, line := range clusters {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, cluster := range line {
			if strings.TrimSpace(cluster) == "" {
				b.WriteString(cluster)
				continue
			}
			b.WriteString(lipgloss.NewStyle().Foreground(ramp[j]).Render(cluster))
		}
	}
	return b.String()
}

// Blend returns n colours evenly spaced between c1 and c2 in Lab space.
func Blend(c1, c2 color.Color, n int) []color.Color {
	if n <= 0 {
		return nil
	}
	a, _ := colorful.MakeColor(c1)
	b, _ := colorful.MakeColor(c2)

	out := make([]color.Color, n)
	if n == 1 {
		out[0] = a
		return out
	}
	for i := range n {
		out[i] = a.BlendLab(b, float64(i)/float64(n-1)).Clamped()
	}
	return out
}

// Hex formats a colour as #rrggbb.
func Hex(c color.Color) string {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return "#000000"
	}
	return cf.Hex()
}
