package styles

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// rebuilders holds callbacks to rebuild package-level lipgloss.Style values
// in other packages after a theme change. renderview registers one here so
// this package never has to import renderview back.
var rebuilders []func()

// RegisterRebuilder adds a callback invoked after ApplyTheme updates colors.
func RegisterRebuilder(fn func()) {
	rebuilders = append(rebuilders, fn)
}

// ThemeConfig mirrors config.ThemeConfig field-for-field, duplicated here to
// avoid a styles<->config import cycle (model.go converts between the two
// with a plain struct conversion, so field order and types must match).
type ThemeConfig struct {
	Preset string
	Type   string // "system" (default), "light", or "dark"
	Syntax string
	Colors map[string]string
}

var (
	DiffAdditionColor lipgloss.AdaptiveColor
	DiffDeletionColor lipgloss.AdaptiveColor
	DiffContextColor  lipgloss.AdaptiveColor
	GutterColor       lipgloss.AdaptiveColor
	HunkHeaderColor   lipgloss.AdaptiveColor
	CollapsedColor    lipgloss.AdaptiveColor
	BufferRowColor    lipgloss.AdaptiveColor
	FileHeaderColor   lipgloss.AdaptiveColor
	NoNewlineColor    lipgloss.AdaptiveColor
	AnnotationColor   lipgloss.AdaptiveColor
	TextPrimaryColor  lipgloss.AdaptiveColor
	TextMutedColor    lipgloss.AdaptiveColor
	StatusErrorColor  lipgloss.AdaptiveColor
)

var (
	AdditionStyle   lipgloss.Style
	DeletionStyle   lipgloss.Style
	ContextStyle    lipgloss.Style
	GutterStyle     lipgloss.Style
	HunkHeaderStyle lipgloss.Style
	CollapsedStyle  lipgloss.Style
	BufferRowStyle  lipgloss.Style
	FileHeaderStyle lipgloss.Style
	NoNewlineStyle  lipgloss.Style
	AnnotationStyle lipgloss.Style
	ErrorStyle      lipgloss.Style
)

func init() {
	if err := ApplyTheme(ThemeConfig{Preset: "default"}); err != nil {
		panic(err)
	}
}

// ApplyTheme applies a complete theme: default preset (resolved to its
// light or dark variant per cfg.Type), then named preset, then individual
// color overrides, then a rebuild of every derived Style.
func ApplyTheme(cfg ThemeConfig) error {
	isDark := ResolveThemeType(cfg.Type) == "dark"

	colors := maps.Clone(presetColors(DefaultPreset, isDark))

	if cfg.Preset != "" && cfg.Preset != "default" {
		preset, ok := Presets[cfg.Preset]
		if !ok {
			return fmt.Errorf("unknown theme preset: %s", cfg.Preset)
		}
		maps.Copy(colors, presetColors(preset, isDark))
	}

	for key, value := range cfg.Colors {
		token := ColorToken(key)
		if !isValidToken(token) {
			return fmt.Errorf("unknown color token: %s", key)
		}
		if !isValidHexColor(value) {
			return fmt.Errorf("invalid hex color for %s: %s", key, value)
		}
		colors[token] = value
	}

	applyColors(colors)
	rebuildStyles()
	return nil
}

// presetColors returns p's dark Colors, unless isDark is false and p
// carries a Light pair, in which case the light variant is returned.
func presetColors(p Preset, isDark bool) map[ColorToken]string {
	if !isDark && p.Light != nil {
		return p.Light
	}
	return p.Colors
}

func applyColors(colors map[ColorToken]string) {
	make1 := func(hex string) lipgloss.AdaptiveColor {
		return lipgloss.AdaptiveColor{Light: hex, Dark: hex}
	}
	set := func(dst *lipgloss.AdaptiveColor, token ColorToken) {
		if c, ok := colors[token]; ok {
			*dst = make1(c)
		}
	}

	set(&DiffAdditionColor, TokenDiffAddition)
	set(&DiffDeletionColor, TokenDiffDeletion)
	set(&DiffContextColor, TokenDiffContext)
	set(&GutterColor, TokenGutter)
	set(&HunkHeaderColor, TokenHunkHeader)
	set(&CollapsedColor, TokenCollapsed)
	set(&BufferRowColor, TokenBufferRow)
	set(&FileHeaderColor, TokenFileHeader)
	set(&NoNewlineColor, TokenNoNewline)
	set(&AnnotationColor, TokenAnnotation)
	set(&TextPrimaryColor, TokenTextPrimary)
	set(&TextMutedColor, TokenTextMuted)
	set(&StatusErrorColor, TokenStatusError)
}

func rebuildStyles() {
	AdditionStyle = lipgloss.NewStyle().Foreground(DiffAdditionColor)
	DeletionStyle = lipgloss.NewStyle().Foreground(DiffDeletionColor)
	ContextStyle = lipgloss.NewStyle().Foreground(DiffContextColor)
	GutterStyle = lipgloss.NewStyle().Foreground(GutterColor)
	HunkHeaderStyle = lipgloss.NewStyle().Foreground(HunkHeaderColor).Bold(true)
	CollapsedStyle = lipgloss.NewStyle().Foreground(CollapsedColor).Italic(true)
	BufferRowStyle = lipgloss.NewStyle().Foreground(BufferRowColor)
	FileHeaderStyle = lipgloss.NewStyle().Foreground(FileHeaderColor).Bold(true)
	NoNewlineStyle = lipgloss.NewStyle().Foreground(NoNewlineColor).Italic(true)
	AnnotationStyle = lipgloss.NewStyle().Foreground(AnnotationColor)
	ErrorStyle = lipgloss.NewStyle().Foreground(StatusErrorColor).Bold(true).Padding(1, 2)

	for _, fn := range rebuilders {
		fn()
	}
}

func isValidToken(token ColorToken) bool {
	return slices.Contains(AllTokens(), token)
}

func isValidHexColor(s string) bool {
	if !strings.HasPrefix(s, "#") {
		return false
	}
	hex := s[1:]
	if len(hex) != 3 && len(hex) != 6 {
		return false
	}
	_, err := strconv.ParseUint(hex, 16, 64)
	return err == nil
}
