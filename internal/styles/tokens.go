// Package styles holds the Lip Gloss color tokens and presets scrollcode
// renders diffs with, and the ApplyTheme pipeline that turns a config-loaded
// theme into ready lipgloss.Style values.
package styles

// ColorToken is a themeable color name. It is the key a user's config can
// override under theme.colors.
type ColorToken string

const (
	TokenDiffAddition ColorToken = "diff.addition"
	TokenDiffDeletion ColorToken = "diff.deletion"
	TokenDiffContext  ColorToken = "diff.context"

	TokenGutter       ColorToken = "gutter"
	TokenHunkHeader   ColorToken = "hunk.header"
	TokenCollapsed    ColorToken = "collapsed"
	TokenBufferRow    ColorToken = "buffer"
	TokenFileHeader   ColorToken = "file.header"
	TokenNoNewline    ColorToken = "no_newline"
	TokenAnnotation   ColorToken = "annotation"

	TokenTextPrimary ColorToken = "text.primary"
	TokenTextMuted   ColorToken = "text.muted"
	TokenStatusError ColorToken = "status.error"
)

// AllTokens returns every valid color token, used to validate config
// overrides.
func AllTokens() []ColorToken {
	return []ColorToken{
		TokenDiffAddition, TokenDiffDeletion, TokenDiffContext,
		TokenGutter, TokenHunkHeader, TokenCollapsed, TokenBufferRow,
		TokenFileHeader, TokenNoNewline, TokenAnnotation,
		TokenTextPrimary, TokenTextMuted, TokenStatusError,
	}
}
