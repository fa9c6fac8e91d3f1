package styles

// NewDefaultTheme creates the night-sky theme used by unwind.
func NewDefaultTheme() *Theme {
	return &Theme{
		Name:   "default",
		IsDark: true,

		// Dusk violet and moonlight teal
		Primary:   ParseHex("#9d8cff"),
		Secondary: ParseHex("#7fd1c7"),
		Tertiary:  ParseHex("#3b3557"),
		Accent:    ParseHex("#f2c6de"),

		BgBase:    ParseHex("#14121f"),
		BgSubtle:  ParseHex("#1c1a2b"),
		BgOverlay: ParseHex("#252238"),

		FgBase:   ParseHex("#d9d4f0"),
		FgMuted:  ParseHex("#8f89ad"),
		FgSubtle: ParseHex("#5d5877"),

		Border:      ParseHex("#3b3557"),
		BorderFocus: ParseHex("#9d8cff"),

		Success: ParseHex("#9ad1a4"),
		Error:   ParseHex("#ee8a9a"),
		Warning: ParseHex("#f0cf8c"),
		Info:    ParseHex("#8cb8f0"),
	}
}
