package plotpage

// Theme represents a color theme for visualizations.
type Theme string

const (
	// ThemeLight is the light color theme.
	ThemeLight Theme = "light"
	// ThemeDark is the dark color theme.
	ThemeDark Theme = "dark"
)

// ParseTheme maps a flag value to a Theme, defaulting to dark.
func ParseTheme(name string) Theme {
	if Theme(name) == ThemeLight {
		return ThemeLight
	}

	return ThemeDark
}

// ThemeConfig holds the theme-specific styling values used by the templates
// and chart options.
type ThemeConfig struct {
	Background    string
	Surface       string
	Border        string
	TextPrimary   string
	TextSecondary string
	TextMuted     string
	Accent        string
	Warning       string
	WarningSubtle string

	ChartBackground string
	ChartGrid       string
	ChartAxis       string
	ChartText       string
	ChartTextMuted  string

	// Palette colors series and Sankey nodes in order.
	Palette []string
}

// GetThemeConfig returns the configuration for a given theme.
func GetThemeConfig(theme Theme) ThemeConfig {
	if theme == ThemeDark {
		return darkTheme
	}

	return lightTheme
}

// Color returns the palette color for index i, cycling.
func (tc ThemeConfig) Color(i int) string {
	return tc.Palette[i%len(tc.Palette)]
}

var lightTheme = ThemeConfig{
	Background:    "#fafaf9", // stone-50.
	Surface:       "#ffffff",
	Border:        "#e7e5e4", // stone-200.
	TextPrimary:   "#1c1917", // stone-900.
	TextSecondary: "#44403c", // stone-700.
	TextMuted:     "#78716c", // stone-500.
	Accent:        "#a16207", // amber-700.
	Warning:       "#ca8a04", // yellow-600.
	WarningSubtle: "#fef9c3", // yellow-100.

	ChartBackground: "transparent",
	ChartGrid:       "#e7e5e4",
	ChartAxis:       "#a8a29e", // stone-400.
	ChartText:       "#44403c",
	ChartTextMuted:  "#78716c",

	Palette: []string{
		"#a16207", "#0369a1", "#4d7c0f", "#7c3aed", "#be185d",
		"#0891b2", "#c2410c", "#4338ca", "#15803d", "#b91c1c",
	},
}

var darkTheme = ThemeConfig{
	Background:    "#0c0a09", // stone-950.
	Surface:       "#1c1917", // stone-900.
	Border:        "#44403c", // stone-700.
	TextPrimary:   "#fafaf9",
	TextSecondary: "#d6d3d1", // stone-300.
	TextMuted:     "#a8a29e",
	Accent:        "#d97706", // amber-600.
	Warning:       "#eab308", // yellow-500.
	WarningSubtle: "#422006", // yellow-950.

	ChartBackground: "transparent",
	ChartGrid:       "#44403c",
	ChartAxis:       "#57534e", // stone-600.
	ChartText:       "#d6d3d1",
	ChartTextMuted:  "#a8a29e",

	Palette: []string{
		"#fbbf24", "#38bdf8", "#a3e635", "#a78bfa", "#f472b6",
		"#22d3ee", "#fb923c", "#818cf8", "#4ade80", "#f87171",
	},
}
