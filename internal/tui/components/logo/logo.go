// Package logo renders the unwind wordmark.
package logo

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/guilhermegouw/unwind/internal/tui/styles"
)

const unwindLogo = `
██╗   ██╗███╗   ██╗██╗    ██╗██╗███╗   ██╗██████╗
██║   ██║████╗  ██║██║    ██║██║████╗  ██║██╔══██╗
██║   ██║██╔██╗ ██║██║ █╗ ██║██║██╔██╗ ██║██║  ██║
██║   ██║██║╚██╗██║██║███╗██║██║██║╚██╗██║██║  ██║
╚██████╔╝██║ ╚████║╚███╔███╔╝██║██║ ╚████║██████╔╝
 ╚═════╝ ╚═╝  ╚═══╝ ╚══╝╚══╝ ╚═╝╚═╝  ╚═══╝╚═════╝
`

const unwindLogoSmall = `
╦ ╦╔╗╔╦ ╦╦╔╗╔╔╦╗
║ ║║║║║║║║║║║ ║║
╚═╝╝╚╝╚╩╝╩╝╚╝═╩╝
`

// Render returns the full logo in a primary-to-accent gradient.
func Render() string {
	t := styles.CurrentTheme()
	return styles.ApplyForegroundGrad(strings.Trim(unwindLogo, "\n"), t.Primary, t.Accent)
}

// RenderSmall returns the compact logo.
func RenderSmall() string {
	t := styles.CurrentTheme()
	return styles.ApplyForegroundGrad(strings.Trim(unwindLogoSmall, "\n"), t.Primary, t.Accent)
}

// RenderFor picks the logo that fits in width.
func RenderFor(width int) string {
	if width < Width()+4 {
		return RenderSmall()
	}
	return Render()
}

// Width returns the width of the full logo.
func Width() int {
	return lipgloss.Width(strings.Trim(unwindLogo, "\n"))
}

// Height returns the height of the full logo.
func Height() int {
	return lipgloss.Height(strings.Trim(unwindLogo, "\n"))
}
