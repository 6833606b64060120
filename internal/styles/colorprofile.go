package styles

import (
	"os"

	"github.com/muesli/termenv"
)

// output is the terminal output termenv queries for background/profile
// detection. A package-level var (not a fresh termenv.NewOutput per call) so
// tests can swap it without touching os.Stdout.
var output = termenv.NewOutput(os.Stdout)

// DetectThemeType asks the terminal whether it has a dark or light
// background via termenv's OSC 11 query, the same signal
// lipgloss.HasDarkBackground wraps — queried directly here because
// ApplyTheme needs the bool itself, not just an adaptive-color side effect.
func DetectThemeType() string {
	if output.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

// ResolveThemeType turns a config ThemeConfig.Type value ("system", "light",
// "dark", or "") into a concrete "light"/"dark", querying the terminal via
// DetectThemeType only when the caller asked for "system" (the default) —
// spec.md §4.2's setThemeType(system|light|dark).
func ResolveThemeType(requested string) string {
	switch requested {
	case "light", "dark":
		return requested
	default:
		return DetectThemeType()
	}
}

// ColorProfile reports the terminal's color depth (ascii/ANSI/ANSI256/
// TrueColor). No other package in scrollcode calls it.
func ColorProfile() termenv.Profile {
	return output.ColorProfile()
}
