package styles

// Preset is a complete color theme. Light holds an optional light-background
// variant of Colors; a nil Light means the preset has no light pair and
// ApplyTheme falls back to Colors regardless of the resolved theme type —
// spec.md §4.2's "if theme is a pair, select which to render" allows for
// themes that are not a pair.
type Preset struct {
	Name   string
	Colors map[ColorToken]string
	Light  map[ColorToken]string
}

// Presets contains the built-in theme presets.
var Presets = map[string]Preset{
	"default":       DefaultPreset,
	"dracula":       DraculaPreset,
	"nord":          NordPreset,
	"high-contrast": HighContrastPreset,
}

var DefaultPreset = Preset{
	Name: "default",
	Colors: map[ColorToken]string{
		TokenDiffAddition: "#73F59F",
		TokenDiffDeletion: "#FF8787",
		TokenDiffContext:  "#CCCCCC",
		TokenGutter:       "#696969",
		TokenHunkHeader:   "#54A0FF",
		TokenCollapsed:    "#999999",
		TokenBufferRow:    "#444444",
		TokenFileHeader:   "#FFFFFF",
		TokenNoNewline:    "#777777",
		TokenAnnotation:   "#FECA57",
		TokenTextPrimary:  "#CCCCCC",
		TokenTextMuted:    "#696969",
		TokenStatusError:  "#FF8787",
	},
	Light: map[ColorToken]string{
		TokenDiffAddition: "#1A7F37",
		TokenDiffDeletion: "#CF222E",
		TokenDiffContext:  "#24292F",
		TokenGutter:       "#6E7781",
		TokenHunkHeader:   "#0969DA",
		TokenCollapsed:    "#6E7781",
		TokenBufferRow:    "#D0D7DE",
		TokenFileHeader:   "#24292F",
		TokenNoNewline:    "#8250DF",
		TokenAnnotation:   "#9A6700",
		TokenTextPrimary:  "#24292F",
		TokenTextMuted:    "#6E7781",
		TokenStatusError:  "#CF222E",
	},
}

var DraculaPreset = Preset{
	Name: "dracula",
	Colors: map[ColorToken]string{
		TokenDiffAddition: "#50FA7B",
		TokenDiffDeletion: "#FF5555",
		TokenDiffContext:  "#F8F8F2",
		TokenGutter:       "#6272A4",
		TokenHunkHeader:   "#8BE9FD",
		TokenCollapsed:    "#6272A4",
		TokenBufferRow:    "#44475A",
		TokenFileHeader:   "#F8F8F2",
		TokenNoNewline:    "#BD93F9",
		TokenAnnotation:   "#F1FA8C",
		TokenTextPrimary:  "#F8F8F2",
		TokenTextMuted:    "#6272A4",
		TokenStatusError:  "#FF5555",
	},
}

var NordPreset = Preset{
	Name: "nord",
	Colors: map[ColorToken]string{
		TokenDiffAddition: "#A3BE8C",
		TokenDiffDeletion: "#BF616A",
		TokenDiffContext:  "#D8DEE9",
		TokenGutter:       "#4C566A",
		TokenHunkHeader:   "#88C0D0",
		TokenCollapsed:    "#4C566A",
		TokenBufferRow:    "#3B4252",
		TokenFileHeader:   "#ECEFF4",
		TokenNoNewline:    "#B48EAD",
		TokenAnnotation:   "#EBCB8B",
		TokenTextPrimary:  "#E5E9F0",
		TokenTextMuted:    "#4C566A",
		TokenStatusError:  "#BF616A",
	},
}

var HighContrastPreset = Preset{
	Name: "high-contrast",
	Colors: map[ColorToken]string{
		TokenDiffAddition: "#00FF00",
		TokenDiffDeletion: "#FF0000",
		TokenDiffContext:  "#FFFFFF",
		TokenGutter:       "#FFFFFF",
		TokenHunkHeader:   "#00FFFF",
		TokenCollapsed:    "#FFFFFF",
		TokenBufferRow:    "#808080",
		TokenFileHeader:   "#FFFFFF",
		TokenNoNewline:    "#FFFF00",
		TokenAnnotation:   "#FFFF00",
		TokenTextPrimary:  "#FFFFFF",
		TokenTextMuted:    "#C0C0C0",
		TokenStatusError:  "#FF0000",
	},
}
